package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/data/db"
	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrInvariant indicates invariant rule violation.
	ErrInvariant = errors.New("aggregate invariant violation")
	// ErrConflict indicates optimistic/concurrency conflict.
	ErrConflict = errors.New("aggregate conflict")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("aggregate retryable")
)

func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

func InvariantError(msg string) error {
	return errors.Join(ErrInvariant, errors.New(strings.TrimSpace(msg)))
}

func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure/domain failures into aggregate error codes.
// Domain sentinels stay reachable through errors.Is on the result.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	if classified := classifyUniqueViolation(op, err); classified != nil {
		return classified
	}
	switch {
	case pipelines.IsValidation(err), errors.Is(err, assets.ErrInvalidAsset):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, pipelines.ErrNotFound),
		errors.Is(err, attributes.ErrDefinitionNotFound),
		errors.Is(err, assets.ErrNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, attributes.ErrKeyExhaustion), errors.Is(err, attributes.ErrKeyConflict):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, assets.ErrDisabled):
		return domainagg.Wrap(domainagg.CodePreconditionFailed, op, err)
	case errors.Is(err, ErrValidation):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, ErrInvariant):
		return domainagg.Wrap(domainagg.CodeInvariantViolation, op, err)
	case errors.Is(err, ErrConflict):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, ErrRetryable):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domainagg.Wrap(domainagg.CodeConflict, op, err) // unique_violation
		case "23503":
			return domainagg.Wrap(domainagg.CodePreconditionFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return domainagg.Wrap(domainagg.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "already exists"),
		strings.Contains(msg, "unique constraint failed"):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	default:
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
}

// classifyUniqueViolation turns a commit-time unique failure on a known index
// into the domain error the pre-check would have produced.
func classifyUniqueViolation(op string, err error) error {
	if !db.IsUniqueViolation(err) {
		return nil
	}
	switch {
	case db.ViolatesIndex(err, "idx_pipeline_account_name", "pipeline.account_id", "pipeline.name"):
		dup := pipelines.DuplicateName()
		return domainagg.NewError(domainagg.CodeValidation, op, dup.Error(), errors.Join(dup, err))
	case db.ViolatesIndex(err, "idx_attribute_definition_account_key", "attribute_definition.account_id", "attribute_definition.attribute_key"):
		return domainagg.NewError(domainagg.CodeConflict, op, attributes.ErrKeyConflict.Error(), errors.Join(attributes.ErrKeyConflict, err))
	default:
		return nil
	}
}
