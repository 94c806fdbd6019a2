package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/pipelines-backend/internal/data/aggregates"
	"github.com/yungbote/pipelines-backend/internal/data/repos"
	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/conversations"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

// PipelineView is a pipeline with its derived definition and the number of
// conversations currently tagged with the definition's key.
type PipelineView struct {
	Pipeline           *pipelines.Pipeline
	Definition         *attributes.Definition
	ConversationsCount int64
}

// PipelineSpec describes a pipeline by name for declarative apply. A nil
// Position leaves an existing pipeline's position alone and creates at 0.
type PipelineSpec struct {
	Name        string
	Description string
	Position    *int
	Stages      json.RawMessage
}

type ApplyOutcome string

const (
	ApplyCreated ApplyOutcome = "created"
	ApplyUpdated ApplyOutcome = "updated"
)

type ApplyResult struct {
	Name       string
	Outcome    ApplyOutcome
	PipelineID uuid.UUID
}

// PipelineService is the entry point for handlers and the CLI. Writes go
// through the pipeline aggregate; reads hit the repos directly.
type PipelineService interface {
	Create(ctx context.Context, in domainagg.CreatePipelineInput) (domainagg.PipelineResult, error)
	Get(ctx context.Context, accountID, id uuid.UUID) (*PipelineView, error)
	List(ctx context.Context, accountID uuid.UUID) ([]*pipelines.Pipeline, error)
	Update(ctx context.Context, in domainagg.UpdatePipelineInput) (domainagg.PipelineResult, error)
	ReorderStages(ctx context.Context, in domainagg.ReorderStagesInput) (domainagg.PipelineResult, error)
	Delete(ctx context.Context, in domainagg.DeletePipelineInput) (domainagg.DeletePipelineResult, error)
	// ConversationCount is 0 for a pipeline without a definition.
	ConversationCount(ctx context.Context, accountID, id uuid.UUID) (int64, error)
	// Apply creates or updates each pipeline by name, stopping at the first failure.
	Apply(ctx context.Context, accountID uuid.UUID, specs []PipelineSpec) ([]ApplyResult, error)
	// DeleteAllForAccount deletes every pipeline of the account, one at a time.
	DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	// PurgeKey re-runs the conversation sweep for key.
	PurgeKey(ctx context.Context, accountID uuid.UUID, key string) conversations.SweepResult
}

type pipelineService struct {
	db        *gorm.DB
	log       *logger.Logger
	aggregate domainagg.PipelineAggregate
	pipelines repos.PipelineRepo
	registry  AttributeRegistry
	sweeper   ConversationAttributeSweeper
}

func NewPipelineService(
	db *gorm.DB,
	log *logger.Logger,
	aggregate domainagg.PipelineAggregate,
	pipelineRepo repos.PipelineRepo,
	registry AttributeRegistry,
	sweeper ConversationAttributeSweeper,
) PipelineService {
	return &pipelineService{
		db:        db,
		log:       log.With("service", "PipelineService"),
		aggregate: aggregate,
		pipelines: pipelineRepo,
		registry:  registry,
		sweeper:   sweeper,
	}
}

func (s *pipelineService) Create(ctx context.Context, in domainagg.CreatePipelineInput) (domainagg.PipelineResult, error) {
	return s.aggregate.Create(ctx, in)
}

func (s *pipelineService) Update(ctx context.Context, in domainagg.UpdatePipelineInput) (domainagg.PipelineResult, error) {
	return s.aggregate.Update(ctx, in)
}

func (s *pipelineService) ReorderStages(ctx context.Context, in domainagg.ReorderStagesInput) (domainagg.PipelineResult, error) {
	return s.aggregate.ReorderStages(ctx, in)
}

func (s *pipelineService) Delete(ctx context.Context, in domainagg.DeletePipelineInput) (domainagg.DeletePipelineResult, error) {
	return s.aggregate.Delete(ctx, in)
}

func (s *pipelineService) Get(ctx context.Context, accountID, id uuid.UUID) (*PipelineView, error) {
	const op = "Pipelines.Pipeline.Get"
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}
	row, err := s.pipelines.GetByID(dbc, accountID, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if row == nil {
		return nil, dataagg.MapError(op, pipelines.ErrNotFound)
	}
	view := &PipelineView{Pipeline: row}
	if row.AttributeDefinitionID == nil {
		return view, nil
	}
	def, err := s.registry.Get(dbc, *row.AttributeDefinitionID)
	switch {
	case errors.Is(err, attributes.ErrDefinitionNotFound):
		return view, nil
	case err != nil:
		return nil, dataagg.MapError(op, err)
	}
	view.Definition = def
	count, err := s.sweeper.Count(ctx, accountID, def.AttributeKey)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	view.ConversationsCount = count
	return view, nil
}

func (s *pipelineService) List(ctx context.Context, accountID uuid.UUID) ([]*pipelines.Pipeline, error) {
	rows, err := s.pipelines.ListByAccount(dbctx.Context{Ctx: ctx, Tx: s.db}, accountID)
	if err != nil {
		return nil, dataagg.MapError("Pipelines.Pipeline.List", err)
	}
	return rows, nil
}

func (s *pipelineService) ConversationCount(ctx context.Context, accountID, id uuid.UUID) (int64, error) {
	view, err := s.Get(ctx, accountID, id)
	if err != nil {
		return 0, err
	}
	return view.ConversationsCount, nil
}

func (s *pipelineService) Apply(ctx context.Context, accountID uuid.UUID, specs []PipelineSpec) ([]ApplyResult, error) {
	const op = "Pipelines.Pipeline.Apply"
	out := make([]ApplyResult, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		existing, err := s.pipelines.GetByName(dbctx.Context{Ctx: ctx, Tx: s.db}, accountID, name)
		if err != nil {
			return out, dataagg.MapError(op, err)
		}
		if existing == nil {
			pos := 0
			if spec.Position != nil {
				pos = *spec.Position
			}
			res, err := s.aggregate.Create(ctx, domainagg.CreatePipelineInput{
				AccountID:   accountID,
				Name:        name,
				Description: spec.Description,
				Stages:      spec.Stages,
				Position:    pos,
			})
			if err != nil {
				return out, err
			}
			out = append(out, ApplyResult{Name: name, Outcome: ApplyCreated, PipelineID: res.Pipeline.ID})
			continue
		}

		desc := spec.Description
		res, err := s.aggregate.Update(ctx, domainagg.UpdatePipelineInput{
			AccountID:  accountID,
			PipelineID: existing.ID,
			Patch: domainagg.PipelinePatch{
				Description: &desc,
				Position:    spec.Position,
				Stages:      spec.Stages,
			},
		})
		if err != nil {
			return out, err
		}
		out = append(out, ApplyResult{Name: name, Outcome: ApplyUpdated, PipelineID: res.Pipeline.ID})
	}
	s.log.Info("pipelines applied", "account_id", accountID, "count", len(out))
	return out, nil
}

func (s *pipelineService) DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	rows, err := s.List(ctx, accountID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, row := range rows {
		_, err := s.aggregate.Delete(ctx, domainagg.DeletePipelineInput{AccountID: accountID, PipelineID: row.ID})
		if err != nil {
			if domainagg.IsCode(err, domainagg.CodeNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	s.log.Info("account pipelines deleted", "account_id", accountID, "deleted", deleted)
	return deleted, nil
}

func (s *pipelineService) PurgeKey(ctx context.Context, accountID uuid.UUID, key string) conversations.SweepResult {
	return s.sweeper.Purge(ctx, accountID, strings.TrimSpace(key))
}
