package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/pipelines-backend/internal/app"
)

const envPrefix = "PIPELINECTL"

type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: newViper()}

	root := &cobra.Command{
		Use:           "pipelinectl",
		Short:         "Operate pipelines and their derived attributes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.String("db-driver", "", "database driver (postgres|sqlite); defaults to DB_DRIVER")
	flags.String("account", "", "account id")
	flags.Int("sweep-batch", 0, "conversations per sweep page; defaults to SWEEP_BATCH_SIZE")
	_ = c.v.BindPFlags(flags)

	root.AddCommand(
		c.migrateCmd(),
		c.applyCmd(),
		c.deleteCmd(),
		c.purgeKeyCmd(),
		c.deleteAccountCmd(),
		c.watchCmd(),
	)
	return root
}

// newViper resolves settings from flags first, then PIPELINECTL_* env vars.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// openApp wires the full stack. Only migrate runs AutoMigrate.
func (c *cli) openApp(migrate bool) (*app.App, error) {
	log, err := app.NewLogger()
	if err != nil {
		return nil, err
	}
	cfg := app.LoadConfig(log)
	if d := strings.TrimSpace(c.v.GetString("db-driver")); d != "" {
		cfg.DBDriver = d
	}
	if n := c.v.GetInt("sweep-batch"); n > 0 {
		cfg.SweepBatchSize = n
	}
	cfg.AutoMigrate = migrate

	a, err := app.NewWithConfig(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func (c *cli) accountID() (uuid.UUID, error) {
	raw := strings.TrimSpace(c.v.GetString("account"))
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--account is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--account: invalid id %q", raw)
	}
	return id, nil
}
