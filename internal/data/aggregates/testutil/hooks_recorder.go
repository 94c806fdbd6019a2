package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/pipelines-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
)

// HooksRecorder keeps every hook call for assertions.
type HooksRecorder struct {
	mu sync.Mutex

	Writes     []WriteEvent
	Rejections []Rejection
}

type WriteEvent struct {
	Op       string
	Status   string
	Duration time.Duration
}

type Rejection struct {
	Op   string
	Code domainagg.ErrorCode
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveWrite(op, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Writes = append(h.Writes, WriteEvent{Op: op, Status: status, Duration: dur})
}

func (h *HooksRecorder) CountRejection(op string, code domainagg.ErrorCode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Rejections = append(h.Rejections, Rejection{Op: op, Code: code})
}

// Statuses lists write statuses in call order.
func (h *HooksRecorder) Statuses() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.Writes))
	for _, w := range h.Writes {
		out = append(out, w.Status)
	}
	return out
}

// Rejected returns the ops rejected with code.
func (h *HooksRecorder) Rejected(code domainagg.ErrorCode) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.Rejections {
		if r.Code == code {
			out = append(out, r.Op)
		}
	}
	return out
}
