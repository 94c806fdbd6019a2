package pipelines

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidShape       = errors.New("must be an array")
	ErrEmptyStageList     = errors.New("must have at least one stage")
	ErrMissingStageName   = errors.New("must have a name")
	ErrDuplicateStageName = errors.New("duplicates an earlier stage name")
	ErrMissingName        = errors.New("can't be blank")
	ErrDuplicateName      = errors.New("has already been taken")
	ErrNotFound           = errors.New("pipeline not found")
)

// FieldError pins a validation failure to one input field. Index is the
// stage position for per-stage failures and -1 otherwise.
type FieldError struct {
	Field string
	Index int
	Err   error
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	msg := "invalid"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s: stage %d %s", e.Field, e.Index, msg)
	}
	return fmt.Sprintf("%s %s", e.Field, msg)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(field string, index int, err error) error {
	return &FieldError{Field: strings.TrimSpace(field), Index: index, Err: err}
}

// IsValidation reports whether err is a caller input failure.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidShape),
		errors.Is(err, ErrEmptyStageList),
		errors.Is(err, ErrMissingStageName),
		errors.Is(err, ErrDuplicateStageName),
		errors.Is(err, ErrMissingName),
		errors.Is(err, ErrDuplicateName):
		return true
	default:
		return false
	}
}

// MissingName builds the blank-name failure.
func MissingName() error { return fieldErr("name", -1, ErrMissingName) }

// DuplicateName builds the per-account name collision failure.
func DuplicateName() error { return fieldErr("name", -1, ErrDuplicateName) }

// InvalidShape builds the non-array stages failure.
func InvalidShape() error { return fieldErr("stages", -1, ErrInvalidShape) }
