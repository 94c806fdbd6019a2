package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
)

func TestMapErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code domainagg.ErrorCode
	}{
		{"invalid shape", pipelines.InvalidShape(), domainagg.CodeValidation},
		{"empty stages", fmt.Errorf("wrapped: %w", pipelines.ErrEmptyStageList), domainagg.CodeValidation},
		{"duplicate name", pipelines.DuplicateName(), domainagg.CodeValidation},
		{"invalid asset", fmt.Errorf("%w: name", assets.ErrInvalidAsset), domainagg.CodeValidation},
		{"generic validation", ValidationError("bad input"), domainagg.CodeValidation},
		{"pipeline missing", pipelines.ErrNotFound, domainagg.CodeNotFound},
		{"definition missing", attributes.ErrDefinitionNotFound, domainagg.CodeNotFound},
		{"asset missing", assets.ErrNotFound, domainagg.CodeNotFound},
		{"gorm not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"key exhaustion", attributes.ErrKeyExhaustion, domainagg.CodeConflict},
		{"key conflict", attributes.ErrKeyConflict, domainagg.CodeConflict},
		{"generic conflict", ConflictError("stale"), domainagg.CodeConflict},
		{"asset disabled", assets.ErrDisabled, domainagg.CodePreconditionFailed},
		{"cancelled", context.Canceled, domainagg.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: custom_asset.id"), domainagg.CodeConflict},
		{"sqlite busy", errors.New("database is locked"), domainagg.CodeRetryable},
		{"unknown", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("op", tc.err)
			if !domainagg.IsCode(got, tc.code) {
				t.Fatalf("want code %q, got %q (%v)", tc.code, domainagg.CodeOf(got), got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("cause not reachable through %v", got)
			}
		})
	}
}

func TestMapErrorKeepsFieldDetail(t *testing.T) {
	got := MapError("Pipelines.Pipeline.Create", pipelines.DuplicateName())
	var fe *pipelines.FieldError
	if !errors.As(got, &fe) || fe.Field != "name" {
		t.Fatalf("expected name field error, got %v", got)
	}
	if domainagg.MessageOf(got) != "name has already been taken" {
		t.Fatalf("message: %q", domainagg.MessageOf(got))
	}
}

func TestMapErrorNil(t *testing.T) {
	if MapError("op", nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	if out := MapError("other", in); out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}
