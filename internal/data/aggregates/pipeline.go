package aggregates

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/data/repos"
	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/conversations"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
)

// AttributeRegistry is the slice of the registry the pipeline aggregate
// drives. Every call runs inside the caller's transaction.
type AttributeRegistry interface {
	Mint(dbc dbctx.Context, in attributes.MintInput) (*attributes.Definition, error)
	UpdateValues(dbc dbctx.Context, definitionID uuid.UUID, values []string, description string) error
	Delete(dbc dbctx.Context, definitionID uuid.UUID) error
	Get(dbc dbctx.Context, definitionID uuid.UUID) (*attributes.Definition, error)
}

// AttributeSweeper strips a key from every conversation of an account.
type AttributeSweeper interface {
	Purge(ctx context.Context, accountID uuid.UUID, key string) conversations.SweepResult
}

// EventPublisher receives committed pipeline changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev pipelines.Event) error
}

type PipelineAggregateDeps struct {
	Base      BaseDeps
	Pipelines repos.PipelineRepo
	Registry  AttributeRegistry
	Sweeper   AttributeSweeper
	Events    EventPublisher
}

type pipelineAggregate struct {
	deps PipelineAggregateDeps
}

func NewPipelineAggregate(deps PipelineAggregateDeps) domainagg.PipelineAggregate {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "PipelineAggregate")
	return &pipelineAggregate{deps: deps}
}

func (a *pipelineAggregate) Contract() domainagg.Contract {
	return domainagg.PipelineAggregateContract
}

func (a *pipelineAggregate) Create(ctx context.Context, in domainagg.CreatePipelineInput) (domainagg.PipelineResult, error) {
	const op = "Pipelines.Pipeline.Create"
	var out domainagg.PipelineResult

	if in.AccountID == uuid.Nil {
		return out, MapError(op, ValidationError("account_id is required"))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return out, MapError(op, pipelines.MissingName())
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		taken, err := a.deps.Pipelines.NameTaken(dbc, in.AccountID, name, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return pipelines.DuplicateName()
		}

		set, err := pipelines.ValidateStages(in.Stages)
		if err != nil {
			return err
		}
		stagesJSON, err := set.JSON()
		if err != nil {
			return err
		}

		row := &pipelines.Pipeline{
			ID:          uuid.New(),
			AccountID:   in.AccountID,
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			Stages:      stagesJSON,
			Position:    in.Position,
		}
		if err := a.deps.Pipelines.Create(dbc, row); err != nil {
			return err
		}

		def, err := a.deps.Registry.Mint(dbc, attributes.MintInput{
			AccountID:   in.AccountID,
			DisplayName: pipelines.AttributeDisplayName(name),
			KeyHint:     pipelines.AttributeKeyHint(name),
			Values:      set.Names(),
			Description: pipelines.AttributeDescription(name),
		})
		if err != nil {
			return err
		}

		if err := a.deps.Pipelines.UpdateFields(dbc, row.ID, map[string]interface{}{
			"attribute_definition_id": def.ID,
		}); err != nil {
			return err
		}
		row.AttributeDefinitionID = &def.ID

		out = domainagg.PipelineResult{Pipeline: row, Definition: def}
		return nil
	})
	if err != nil {
		return domainagg.PipelineResult{}, err
	}

	a.deps.Base.Log.Info("pipeline created",
		"account_id", in.AccountID,
		"pipeline_id", out.Pipeline.ID,
		"attribute_key", out.Definition.AttributeKey,
	)
	a.publish(ctx, pipelines.EventCreated, out.Pipeline, out.Definition)
	return out, nil
}

func (a *pipelineAggregate) Update(ctx context.Context, in domainagg.UpdatePipelineInput) (domainagg.PipelineResult, error) {
	return a.update(ctx, "Pipelines.Pipeline.Update", in)
}

func (a *pipelineAggregate) ReorderStages(ctx context.Context, in domainagg.ReorderStagesInput) (domainagg.PipelineResult, error) {
	const op = "Pipelines.Pipeline.ReorderStages"
	trimmed := bytes.TrimSpace(in.Stages)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return domainagg.PipelineResult{}, MapError(op, pipelines.InvalidShape())
	}
	return a.update(ctx, op, domainagg.UpdatePipelineInput{
		AccountID:  in.AccountID,
		PipelineID: in.PipelineID,
		Patch:      domainagg.PipelinePatch{Stages: trimmed},
	})
}

func (a *pipelineAggregate) update(ctx context.Context, op string, in domainagg.UpdatePipelineInput) (domainagg.PipelineResult, error) {
	var out domainagg.PipelineResult
	if in.AccountID == uuid.Nil || in.PipelineID == uuid.Nil {
		return out, MapError(op, pipelines.ErrNotFound)
	}
	patch := in.Patch

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Pipelines.LockByID(dbc, in.AccountID, in.PipelineID)
		if err != nil {
			return err
		}
		if row == nil {
			return pipelines.ErrNotFound
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return pipelines.MissingName()
			}
			if name != row.Name {
				taken, err := a.deps.Pipelines.NameTaken(dbc, row.AccountID, name, row.ID)
				if err != nil {
					return err
				}
				if taken {
					return pipelines.DuplicateName()
				}
				updates["name"] = name
				row.Name = name
			}
		}
		if patch.Description != nil {
			desc := strings.TrimSpace(*patch.Description)
			updates["description"] = desc
			row.Description = desc
		}
		if patch.Position != nil {
			updates["position"] = *patch.Position
			row.Position = *patch.Position
		}

		var stages *pipelines.StageSet
		if patch.Stages != nil {
			set, err := pipelines.ValidateStages(patch.Stages)
			if err != nil {
				return err
			}
			stagesJSON, err := set.JSON()
			if err != nil {
				return err
			}
			updates["stages"] = stagesJSON
			row.Stages = stagesJSON
			stages = &set
		}

		if len(updates) > 0 {
			if err := a.deps.Pipelines.UpdateFields(dbc, row.ID, updates); err != nil {
				return err
			}
			row.UpdatedAt = time.Now()
		}

		// Any stages write refreshes the definition, named after the current name.
		if stages != nil && row.AttributeDefinitionID != nil {
			err := a.deps.Registry.UpdateValues(dbc, *row.AttributeDefinitionID, stages.Names(), pipelines.AttributeDescription(row.Name))
			switch {
			case errors.Is(err, attributes.ErrDefinitionNotFound):
				a.deps.Base.Log.Warn("pipeline attribute definition missing; values not refreshed",
					"pipeline_id", row.ID,
					"attribute_definition_id", *row.AttributeDefinitionID,
				)
			case err != nil:
				return err
			}
		}

		var def *attributes.Definition
		if row.AttributeDefinitionID != nil {
			def, err = a.deps.Registry.Get(dbc, *row.AttributeDefinitionID)
			if err != nil && !errors.Is(err, attributes.ErrDefinitionNotFound) {
				return err
			}
		}
		out = domainagg.PipelineResult{Pipeline: row, Definition: def}
		return nil
	})
	if err != nil {
		return domainagg.PipelineResult{}, err
	}

	a.publish(ctx, pipelines.EventUpdated, out.Pipeline, out.Definition)
	return out, nil
}

func (a *pipelineAggregate) Delete(ctx context.Context, in domainagg.DeletePipelineInput) (domainagg.DeletePipelineResult, error) {
	const op = "Pipelines.Pipeline.Delete"
	out := domainagg.DeletePipelineResult{PipelineID: in.PipelineID}
	if in.AccountID == uuid.Nil || in.PipelineID == uuid.Nil {
		return out, MapError(op, pipelines.ErrNotFound)
	}

	read := dbctx.Context{Ctx: ctx}
	row, err := a.deps.Pipelines.GetByID(read, in.AccountID, in.PipelineID)
	if err != nil {
		return out, MapError(op, err)
	}
	if row == nil {
		return out, MapError(op, pipelines.ErrNotFound)
	}

	var def *attributes.Definition
	if row.AttributeDefinitionID != nil {
		def, err = a.deps.Registry.Get(read, *row.AttributeDefinitionID)
		if err != nil && !errors.Is(err, attributes.ErrDefinitionNotFound) {
			return out, MapError(op, err)
		}
	}

	// Once the purge starts the delete runs to completion.
	ctx = context.WithoutCancel(ctx)

	if def != nil && a.deps.Sweeper != nil {
		out.AttributeKey = def.AttributeKey
		out.Sweep = a.deps.Sweeper.Purge(ctx, in.AccountID, def.AttributeKey)
		if serr := out.Sweep.Err(); serr != nil {
			a.deps.Base.Log.Warn("attribute sweep incomplete; deleting pipeline anyway",
				"pipeline_id", row.ID,
				"attribute_key", def.AttributeKey,
				"scanned", out.Sweep.Scanned,
				"failed", out.Sweep.Failed,
				"error", serr,
			)
		}
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if row.AttributeDefinitionID != nil {
			if err := a.deps.Registry.Delete(dbc, *row.AttributeDefinitionID); err != nil {
				return err
			}
		}
		deleted, err := a.deps.Pipelines.Delete(dbc, in.AccountID, row.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return pipelines.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return out, err
	}

	a.deps.Base.Log.Info("pipeline deleted",
		"account_id", in.AccountID,
		"pipeline_id", row.ID,
		"attribute_key", out.AttributeKey,
		"conversations_modified", out.Sweep.Modified,
	)
	a.publish(ctx, pipelines.EventDeleted, row, def)
	return out, nil
}

// publish is best effort; the write already committed.
func (a *pipelineAggregate) publish(ctx context.Context, typ pipelines.EventType, row *pipelines.Pipeline, def *attributes.Definition) {
	if a.deps.Events == nil || row == nil {
		return
	}
	ev := pipelines.Event{
		Type:       typ,
		AccountID:  row.AccountID,
		PipelineID: row.ID,
		OccurredAt: time.Now().UTC(),
	}
	if def != nil {
		ev.AttributeKey = def.AttributeKey
		ev.Values = def.ValueList()
	}
	if err := a.deps.Events.Publish(ctx, ev); err != nil {
		a.deps.Base.Log.Warn("pipeline event publish failed", "type", string(typ), "pipeline_id", row.ID, "error", err)
	}
}
