package response

import (
	"errors"
	"net/http"

	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/platform/apierr"
)

var statusByCode = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusUnprocessableEntity,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeInvariantViolation: http.StatusInternalServerError,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// FromError converts err into an *apierr.Error. Aggregate errors keep their
// code and caller-facing message; internal failures are not echoed back.
func FromError(err error) *apierr.Error {
	if err == nil {
		return apierr.New(http.StatusInternalServerError, string(domainagg.CodeInternal), errors.New("unknown error"))
	}
	if out, ok := apierr.As(err); ok {
		return out
	}

	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg := domainagg.MessageOf(err)
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	out := apierr.New(status, string(code), errors.New(msg))

	var fe *pipelines.FieldError
	if errors.As(err, &fe) {
		out.Field = fe.Field
		if fe.Index >= 0 {
			idx := fe.Index
			out.Index = &idx
		}
	}
	return out
}
