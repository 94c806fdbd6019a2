package app

import (
	"github.com/yungbote/pipelines-backend/internal/platform/envutil"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
	"github.com/yungbote/pipelines-backend/internal/services"
)

type Config struct {
	DBDriver       string
	AutoMigrate    bool
	HTTPAddr       string
	MetricsAddr    string
	RedisAddr      string
	ServiceName    string
	Environment    string
	Version        string
	N8NBaseURL     string
	SweepBatchSize int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		DBDriver:       envutil.GetEnv("DB_DRIVER", "postgres", log),
		AutoMigrate:    envutil.GetEnvAsBool("DB_AUTOMIGRATE", true, log),
		HTTPAddr:       envutil.GetEnv("HTTP_ADDR", ":8080", log),
		MetricsAddr:    envutil.GetEnv("METRICS_ADDR", ":9090", log),
		RedisAddr:      envutil.GetEnv("REDIS_ADDR", "", log),
		ServiceName:    envutil.GetEnv("OTEL_SERVICE_NAME", "pipelines-backend", log),
		Environment:    envutil.GetEnv("APP_ENV", "development", log),
		Version:        envutil.GetEnv("APP_VERSION", "dev", log),
		N8NBaseURL:     envutil.GetEnv("N8N_URL", "", log),
		SweepBatchSize: envutil.GetEnvAsInt("SWEEP_BATCH_SIZE", services.DefaultSweepBatchSize, log),
	}
}
