package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/pipelines-backend/internal/data/db"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

var (
	dbOnce sync.Once
	gdb    *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database shared by the package's tests.
//
// TEST_POSTGRES_DSN points at an existing Postgres; TEST_USE_TESTCONTAINERS=1
// starts a throwaway one. Otherwise a SQLite file in a temp dir is used.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		silent := gormLogger.Default.LogMode(gormLogger.Silent)
		switch {
		case strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")) != "":
			gdb, dbErr = db.OpenPostgres(os.Getenv("TEST_POSTGRES_DSN"), silent)
		case useContainers():
			var dsn string
			dsn, dbErr = startPostgresContainer()
			if dbErr == nil {
				gdb, dbErr = db.OpenPostgres(dsn, silent)
			}
		default:
			var dir string
			dir, dbErr = os.MkdirTemp("", "pipelines-test-*")
			if dbErr == nil {
				gdb, dbErr = db.OpenSQLite(filepath.Join(dir, "test.db"), silent)
			}
		}
		if dbErr != nil {
			return
		}
		dbErr = db.AutoMigrateAll(gdb)
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return gdb
}

// Tx opens a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func useContainers() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TEST_USE_TESTCONTAINERS"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// The container is left to the testcontainers reaper once the process exits.
func startPostgresContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pipelines_test"),
		tcpostgres.WithUsername("pipelines"),
		tcpostgres.WithPassword("pipelines"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		return "", err
	}
	return ctr.ConnectionString(ctx, "sslmode=disable")
}
