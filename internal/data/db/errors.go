package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports a unique index failure from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// ViolatesIndex reports whether err is a unique violation on the named index.
// SQLite reports columns instead of index names, so columns ("table.col") are
// matched as a fallback; all must appear.
func ViolatesIndex(err error, index string, columns ...string) bool {
	if !IsUniqueViolation(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return pgErr.ConstraintName == index
	}
	msg := strings.ToLower(err.Error())
	if index != "" && strings.Contains(msg, strings.ToLower(index)) {
		return true
	}
	if len(columns) == 0 {
		return false
	}
	for _, col := range columns {
		if !strings.Contains(msg, strings.ToLower(col)) {
			return false
		}
	}
	return true
}
