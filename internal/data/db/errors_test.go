package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pg := &pgconn.PgError{Code: "23505", ConstraintName: "idx_pipeline_account_name"}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", pg)) {
		t.Fatalf("pg unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("fk violation reported as unique")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: pipeline.account_id, pipeline.name")) {
		t.Fatalf("sqlite unique violation not detected")
	}
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
}

func TestViolatesIndex(t *testing.T) {
	pg := &pgconn.PgError{Code: "23505", ConstraintName: "idx_attribute_definition_account_key"}
	if !ViolatesIndex(pg, "idx_attribute_definition_account_key") {
		t.Fatalf("pg constraint name should match")
	}
	if ViolatesIndex(pg, "idx_pipeline_account_name", "pipeline.name") {
		t.Fatalf("pg constraint name should be authoritative")
	}
	lite := errors.New("UNIQUE constraint failed: pipeline.account_id, pipeline.name")
	if !ViolatesIndex(lite, "idx_pipeline_account_name", "pipeline.account_id", "pipeline.name") {
		t.Fatalf("sqlite column fallback should match")
	}
	if ViolatesIndex(lite, "idx_attribute_definition_account_key", "attribute_definition.attribute_key") {
		t.Fatalf("wrong table matched")
	}
}
