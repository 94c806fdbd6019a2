package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pipelines-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/ping", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	t.Run("keeps inbound ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(headerRequestID, " req-1 ")
		req.Header.Set(headerTraceID, "trace-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.NotNil(t, seen)
		require.Equal(t, "req-1", seen.RequestID)
		require.Equal(t, "trace-1", seen.TraceID)
		require.Equal(t, "req-1", rec.Header().Get(headerRequestID))
		require.Equal(t, "trace-1", rec.Header().Get(headerTraceID))
	})

	t.Run("mints missing ids", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		require.NotEmpty(t, seen.RequestID)
		require.NotEmpty(t, seen.TraceID)
		require.NotEqual(t, seen.RequestID, seen.TraceID)
		require.Equal(t, seen.RequestID, rec.Header().Get(headerRequestID))
	})
}
