package apierr

import (
	"errors"
	"fmt"
)

// Error carries an HTTP status and a stable machine code alongside the cause.
// Field and Index are set for validation failures that point at one input.
type Error struct {
	Status int
	Code   string
	Field  string
	Index  *int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var out *Error
	if errors.As(err, &out) && out != nil {
		return out, true
	}
	return nil, false
}
