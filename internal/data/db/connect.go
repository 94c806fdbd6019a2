package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Service is satisfied by PostgresService and SQLiteService.
type Service interface {
	DB() *gorm.DB
	AutoMigrateAll() error
}

// Connect opens the database selected by driver.
func Connect(log *logger.Logger, driver string) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverPostgres, "postgresql":
		return NewPostgresService(log)
	case DriverSQLite, "sqlite3":
		return NewSQLiteService(log)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// IsPostgres reports whether db talks to Postgres. Used where SQL differs by
// dialect.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == DriverPostgres
}
