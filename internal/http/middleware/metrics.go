package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pipelines-backend/internal/observability"
)

// Probes are polled by the orchestrator and would drown the API series.
var unmeteredRoutes = map[string]struct{}{
	"/healthcheck": {},
	"/readyz":      {},
}

// Metrics records request count, latency and in-flight gauge per route
// template. Unmatched paths share the "unmatched" label.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, skip := unmeteredRoutes[route]; skip {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		m.ApiInflightInc()
		start := time.Now()
		c.Next()
		m.ApiInflightDec()

		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
