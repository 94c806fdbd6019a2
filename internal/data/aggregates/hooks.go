package aggregates

import (
	"time"

	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/observability"
)

// Hooks receives one ObserveWrite per aggregate write. Conflicts and
// retryable failures are also reported through CountRejection.
type Hooks interface {
	ObserveWrite(op, status string, dur time.Duration)
	CountRejection(op string, code domainagg.ErrorCode)
}

type noopHooks struct{}

func (noopHooks) ObserveWrite(string, string, time.Duration)    {}
func (noopHooks) CountRejection(string, domainagg.ErrorCode) {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports aggregate writes to metrics. A nil metrics
// yields hooks that do nothing.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) ObserveWrite(op, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(op, status, dur)
}

func (h metricsHooks) CountRejection(op string, code domainagg.ErrorCode) {
	switch code {
	case domainagg.CodeConflict:
		h.metrics.IncAggregateConflict(op)
	case domainagg.CodeRetryable:
		h.metrics.IncAggregateRetry(op)
	}
}
