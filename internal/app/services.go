package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/clients/n8n"
	"github.com/yungbote/pipelines-backend/internal/clients/redis"
	dataagg "github.com/yungbote/pipelines-backend/internal/data/aggregates"
	"github.com/yungbote/pipelines-backend/internal/data/repos"
	"github.com/yungbote/pipelines-backend/internal/observability"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
	"github.com/yungbote/pipelines-backend/internal/services"
)

type Services struct {
	Registry     services.AttributeRegistry
	Sweeper      services.ConversationAttributeSweeper
	Pipelines    services.PipelineService
	CustomAssets services.CustomAssetService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, metrics *observability.Metrics, events redis.EventBus) Services {
	log.Info("Wiring services...")

	registry := services.NewAttributeRegistry(db, log, reposet.Definitions)
	sweeper := services.NewConversationSweeper(db, log, reposet.Conversation, metrics, cfg.SweepBatchSize)

	aggregate := dataagg.NewPipelineAggregate(dataagg.PipelineAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: dataagg.NewObservabilityHooks(metrics),
		},
		Pipelines: reposet.Pipelines,
		Registry:  registry,
		Sweeper:   sweeper,
		Events:    events,
	})

	n8nClient := n8n.New(log, n8n.ConfigFromEnv(log), metrics)

	return Services{
		Registry:     registry,
		Sweeper:      sweeper,
		Pipelines:    services.NewPipelineService(db, log, aggregate, reposet.Pipelines, registry, sweeper),
		CustomAssets: services.NewCustomAssetService(db, log, reposet.CustomAssets, n8nClient, services.NewAssetFormatter(log)),
	}
}
