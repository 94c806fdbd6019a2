package domain

import (
	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/conversations"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
)

type Pipeline = pipelines.Pipeline
type Stage = pipelines.Stage
type StageSet = pipelines.StageSet
type PipelineEvent = pipelines.Event

type AttributeDefinition = attributes.Definition

type Conversation = conversations.Conversation
type AttributeMap = conversations.AttributeMap
type SweepResult = conversations.SweepResult

type CustomAsset = assets.CustomAsset
type DisplayField = assets.DisplayField

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&attributes.Definition{},
		&pipelines.Pipeline{},
		&conversations.Conversation{},
		&assets.CustomAsset{},
	}
}
