package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/pipelines-backend/internal/platform/envutil"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	dsn := envutil.GetEnv("POSTGRES_DSN", "", logg)
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			envutil.GetEnv("POSTGRES_USER", "postgres", logg),
			envutil.GetEnv("POSTGRES_PASSWORD", "", logg),
			envutil.GetEnv("POSTGRES_HOST", "localhost", logg),
			envutil.GetEnv("POSTGRES_PORT", "5432", logg),
			envutil.GetEnv("POSTGRES_NAME", "pipelines", logg),
			envutil.GetEnv("POSTGRES_SSLMODE", "disable", logg),
		)
	}

	db, err := OpenPostgres(dsn, newGormLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(envutil.GetEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 20, logg))
	sqlDB.SetMaxIdleConns(envutil.GetEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 5, logg))
	sqlDB.SetConnMaxLifetime(envutil.GetEnvAsSeconds("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 30*time.Minute, logg))

	return &PostgresService{db: db, log: serviceLog}, nil
}

// OpenPostgres opens a GORM handle without touching pool settings. Tests and
// the CLI use it directly.
func OpenPostgres(dsn string, gl gormLogger.Interface) (*gorm.DB, error) {
	if gl == nil {
		gl = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gl,
	})
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Running postgres automigrate...")
	return AutoMigrateAll(s.db)
}

func newGormLogger() gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
