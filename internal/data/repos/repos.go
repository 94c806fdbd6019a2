package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/data/repos/assets"
	"github.com/yungbote/pipelines-backend/internal/data/repos/attributes"
	"github.com/yungbote/pipelines-backend/internal/data/repos/conversations"
	"github.com/yungbote/pipelines-backend/internal/data/repos/pipelines"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type PipelineRepo = pipelines.PipelineRepo
type AttributeDefinitionRepo = attributes.AttributeDefinitionRepo
type ConversationRepo = conversations.ConversationRepo
type CustomAssetRepo = assets.CustomAssetRepo

// Set bundles every repo over one handle.
type Set struct {
	Pipelines    PipelineRepo
	Definitions  AttributeDefinitionRepo
	Conversation ConversationRepo
	CustomAssets CustomAssetRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Pipelines:    pipelines.NewPipelineRepo(db, log),
		Definitions:  attributes.NewAttributeDefinitionRepo(db, log),
		Conversation: conversations.NewConversationRepo(db, log),
		CustomAssets: assets.NewCustomAssetRepo(db, log),
	}
}
