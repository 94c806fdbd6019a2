package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pipelines-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pipelines-backend/internal/http/middleware"
	"github.com/yungbote/pipelines-backend/internal/observability"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string

	PipelineHandler    *httpH.PipelineHandler
	CustomAssetHandler *httpH.CustomAssetHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	account := r.Group("/api/accounts/:account_id")
	account.Use(httpMW.AccountScope())
	{
		// Pipelines
		if cfg.PipelineHandler != nil {
			account.POST("/pipelines", cfg.PipelineHandler.Create)
			account.GET("/pipelines/:id", cfg.PipelineHandler.Get)
			account.PATCH("/pipelines/:id", cfg.PipelineHandler.Update)
			account.DELETE("/pipelines/:id", cfg.PipelineHandler.Delete)
			account.POST("/pipelines/:id/reorder_stages", cfg.PipelineHandler.ReorderStages)
		}

		// Custom assets
		if cfg.CustomAssetHandler != nil {
			account.GET("/custom_assets", cfg.CustomAssetHandler.List)
			account.POST("/custom_assets", cfg.CustomAssetHandler.Create)
			account.POST("/custom_assets/test_connection", cfg.CustomAssetHandler.TestConnection)
			account.GET("/custom_assets/:id", cfg.CustomAssetHandler.Get)
			account.PATCH("/custom_assets/:id", cfg.CustomAssetHandler.Update)
			account.DELETE("/custom_assets/:id", cfg.CustomAssetHandler.Delete)
			account.POST("/custom_assets/:id/fetch_assets", cfg.CustomAssetHandler.FetchAssets)
		}
	}

	return r
}
