package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/conversations"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/services"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema migrated (%s)\n", a.DB.Dialector.Name())
			return nil
		},
	}
}

func (c *cli) applyCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "apply -f pipelines.yaml",
		Short: "Create or update pipelines by name from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := c.accountID()
			if err != nil {
				return err
			}
			specs, err := readPipelineFile(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.Services.Pipelines.Apply(cmd.Context(), accountID, specs)
			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(out, "%-8s %s  %s\n", r.Outcome, r.PipelineID, r.Name)
			}
			if err != nil {
				return fmt.Errorf("apply stopped after %d of %d: %s", len(results), len(specs), describeErr(err))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "pipeline pipeline file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var rawID string
	cmd := &cobra.Command{
		Use:   "delete --id <pipeline>",
		Short: "Delete a pipeline, its attribute and the key on every conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := c.accountID()
			if err != nil {
				return err
			}
			pipelineID, err := uuid.Parse(strings.TrimSpace(rawID))
			if err != nil {
				return fmt.Errorf("--id: invalid id %q", rawID)
			}
			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Services.Pipelines.Delete(cmd.Context(), domainagg.DeletePipelineInput{
				AccountID:  accountID,
				PipelineID: pipelineID,
			})
			if err != nil {
				return fmt.Errorf("delete: %s", describeErr(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", res.PipelineID)
			return reportSweep(cmd.OutOrStdout(), res.Sweep)
		},
	}
	cmd.Flags().StringVar(&rawID, "id", "", "pipeline id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (c *cli) purgeKeyCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "purge-key --key <attribute_key>",
		Short: "Remove an attribute key from every conversation of the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := c.accountID()
			if err != nil {
				return err
			}
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("--key is required")
			}
			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			return reportSweep(cmd.OutOrStdout(), a.Services.Pipelines.PurgeKey(cmd.Context(), accountID, key))
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "attribute key")
	return cmd
}

func (c *cli) deleteAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-account",
		Short: "Delete every pipeline of the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := c.accountID()
			if err != nil {
				return err
			}
			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services.Pipelines.DeleteAllForAccount(cmd.Context(), accountID)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d pipeline(s)\n", n)
			if err != nil {
				return fmt.Errorf("delete-account: %s", describeErr(err))
			}
			return nil
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print pipeline change events as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			err = a.Events.StartForwarder(cmd.Context(), func(ev pipelines.Event) {
				_ = enc.Encode(ev)
			})
			if err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}
}

func readPipelineFile(path string, stdin io.Reader) ([]services.PipelineSpec, error) {
	if path == "-" {
		return parsePipelineFile(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parsePipelineFile(f)
}

func reportSweep(w io.Writer, res conversations.SweepResult) error {
	fmt.Fprintf(w, "sweep %q: scanned=%d modified=%d failed=%d\n", res.Key, res.Scanned, res.Modified, res.Failed)
	for _, id := range res.FailedIDs {
		fmt.Fprintf(w, "  failed %s\n", id)
	}
	return res.Err()
}

func describeErr(err error) string {
	code := domainagg.CodeOf(err)
	if code == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s", code, domainagg.MessageOf(err))
}
