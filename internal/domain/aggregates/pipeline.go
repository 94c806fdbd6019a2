package aggregates

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/conversations"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
)

// PipelineAggregateContract: a pipeline and its attribute definition commit
// together. Delete strips the key from conversations before its transaction.
var PipelineAggregateContract = Contract{
	Name:     "Pipelines.PipelineAggregate",
	Tables:   []string{"pipeline", "attribute_definition"},
	Cascades: []string{"conversation"},
}

// PipelineAggregate owns the pipeline lifecycle and keeps the derived
// attribute definition in lockstep with the stage list.
//
// Failures are *aggregates.Error with codes CodeValidation (bad name or
// stages, duplicate name), CodeNotFound, CodeConflict (attribute key
// exhaustion or a racing insert), CodeRetryable, CodeInternal. errors.Is
// still reaches the pipelines/attributes sentinels.
type PipelineAggregate interface {
	Aggregate

	// Create inserts a pipeline and mints its attribute definition in one transaction.
	Create(ctx context.Context, in CreatePipelineInput) (PipelineResult, error)

	// Update applies a partial patch. Any stages write refreshes the definition's values.
	Update(ctx context.Context, in UpdatePipelineInput) (PipelineResult, error)

	// ReorderStages replaces the stage list; input must be a JSON array.
	ReorderStages(ctx context.Context, in ReorderStagesInput) (PipelineResult, error)

	// Delete purges the attribute key from conversations, then removes the
	// definition and the pipeline. The purge is not cancellable once started.
	Delete(ctx context.Context, in DeletePipelineInput) (DeletePipelineResult, error)
}

type CreatePipelineInput struct {
	AccountID   uuid.UUID
	Name        string
	Description string
	Stages      json.RawMessage
	Position    int
}

// PipelinePatch fields left nil are not touched.
type PipelinePatch struct {
	Name        *string
	Description *string
	Position    *int
	Stages      json.RawMessage
}

func (p PipelinePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Position == nil && p.Stages == nil
}

type UpdatePipelineInput struct {
	AccountID  uuid.UUID
	PipelineID uuid.UUID
	Patch      PipelinePatch
}

type ReorderStagesInput struct {
	AccountID  uuid.UUID
	PipelineID uuid.UUID
	Stages     json.RawMessage
}

type DeletePipelineInput struct {
	AccountID  uuid.UUID
	PipelineID uuid.UUID
}

type PipelineResult struct {
	Pipeline   *pipelines.Pipeline
	Definition *attributes.Definition
}

type DeletePipelineResult struct {
	PipelineID   uuid.UUID
	AttributeKey string
	Sweep        conversations.SweepResult
}
