package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/platform/apierr"
)

func TestFromErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   domainagg.ErrorCode
		status int
	}{
		{domainagg.CodeValidation, http.StatusUnprocessableEntity},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodePreconditionFailed, http.StatusPreconditionFailed},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
		{domainagg.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := FromError(domainagg.NewError(tc.code, "op", "msg", nil))
		require.Equal(t, tc.status, got.Status, "code %s", tc.code)
		require.Equal(t, string(tc.code), got.Code)
	}
}

func TestFromErrorFieldDetail(t *testing.T) {
	_, err := pipelines.ValidateStages([]byte(`[{"name":"a"},{"name":""}]`))
	got := FromError(domainagg.Wrap(domainagg.CodeValidation, "op", err))
	require.Equal(t, http.StatusUnprocessableEntity, got.Status)
	require.Equal(t, "stages", got.Field)
	require.NotNil(t, got.Index)
	require.Equal(t, 1, *got.Index)
	require.Equal(t, "stages: stage 1 must have a name", got.Error())

	got = FromError(domainagg.Wrap(domainagg.CodeValidation, "op", pipelines.MissingName()))
	require.Equal(t, "name", got.Field)
	require.Nil(t, got.Index)
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	got := FromError(errors.New("pq: password authentication failed"))
	require.Equal(t, http.StatusInternalServerError, got.Status)
	require.Equal(t, "Internal Server Error", got.Error())
}

func TestFromErrorKeepsAPIError(t *testing.T) {
	in := apierr.New(http.StatusBadRequest, "invalid_account", errors.New("bad account"))
	require.Same(t, in, FromError(fmt.Errorf("wrap: %w", in)))
}

func TestRespondErrWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondErr(c, domainagg.Wrap(domainagg.CodeValidation, "op", pipelines.DuplicateName()))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "name has already been taken", body.Error.Message)
	require.Equal(t, "validation", body.Error.Code)
	require.Equal(t, "name", body.Error.Field)
}
