package app

import (
	apphttp "github.com/yungbote/pipelines-backend/internal/http"
	"github.com/yungbote/pipelines-backend/internal/observability"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *apphttp.Server {
	log.Info("Wiring router...")
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.ServiceName,
		PipelineHandler:    handlers.Pipeline,
		CustomAssetHandler: handlers.CustomAsset,
		HealthHandler:      handlers.Health,
	})
}
