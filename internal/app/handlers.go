package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/pipelines-backend/internal/http/handlers"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type Handlers struct {
	Pipeline    *httpH.PipelineHandler
	CustomAsset *httpH.CustomAssetHandler
	Health      *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Pipeline:    httpH.NewPipelineHandler(log, svcs.Pipelines),
		CustomAsset: httpH.NewCustomAssetHandler(log, svcs.CustomAssets, cfg.N8NBaseURL),
		Health:      httpH.NewHealthHandler(db),
	}
}
