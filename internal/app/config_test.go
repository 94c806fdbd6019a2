package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/pipelines-backend/internal/platform/logger"
	"github.com/yungbote/pipelines-backend/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "HTTP_ADDR", "SWEEP_BATCH_SIZE", "N8N_URL", "DB_AUTOMIGRATE"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, services.DefaultSweepBatchSize, cfg.SweepBatchSize)
	require.True(t, cfg.AutoMigrate)
	require.Empty(t, cfg.N8NBaseURL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SWEEP_BATCH_SIZE", "25")
	t.Setenv("N8N_URL", "https://n8n.example.com")
	t.Setenv("DB_AUTOMIGRATE", "false")

	cfg := LoadConfig(logger.Nop())
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, 25, cfg.SweepBatchSize)
	require.Equal(t, "https://n8n.example.com", cfg.N8NBaseURL)
	require.False(t, cfg.AutoMigrate)
}
