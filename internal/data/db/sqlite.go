package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/pipelines-backend/internal/platform/envutil"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

// SQLiteService backs local development and the default test database.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(logg *logger.Logger) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")
	path := envutil.GetEnv("SQLITE_PATH", "pipelines.db", logg)
	db, err := OpenSQLite(path, newGormLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	return &SQLiteService{db: db, log: serviceLog}, nil
}

// OpenSQLite opens path with a busy timeout so concurrent writers wait
// instead of failing with SQLITE_BUSY.
func OpenSQLite(path string, gl gormLogger.Interface) (*gorm.DB, error) {
	if gl == nil {
		gl = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gl,
	})
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) AutoMigrateAll() error {
	s.log.Info("Running sqlite automigrate...")
	return AutoMigrateAll(s.db)
}
