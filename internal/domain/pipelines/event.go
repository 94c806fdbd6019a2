package pipelines

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated EventType = "pipeline.created"
	EventUpdated EventType = "pipeline.updated"
	EventDeleted EventType = "pipeline.deleted"
)

// Event is published after a pipeline write commits.
type Event struct {
	Type         EventType `json:"type"`
	AccountID    uuid.UUID `json:"account_id"`
	PipelineID   uuid.UUID `json:"pipeline_id"`
	AttributeKey string    `json:"attribute_key,omitempty"`
	Values       []string  `json:"values,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
