package conversations

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrPartialSweep = errors.New("attribute sweep incomplete")

// MaxReportedFailures caps SweepResult.FailedIDs.
const MaxReportedFailures = 100

// SweepResult summarizes one key purge across an account's conversations.
type SweepResult struct {
	Key       string      `json:"key"`
	Scanned   int         `json:"scanned"`
	Modified  int         `json:"modified"`
	Failed    int         `json:"failed"`
	FailedIDs []uuid.UUID `json:"failed_ids,omitempty"`
	// Aborted is set when a page could not be read and the scan stopped early.
	Aborted error `json:"-"`
}

// RecordFailure counts a per-record failure, keeping the first
// MaxReportedFailures ids.
func (r *SweepResult) RecordFailure(id uuid.UUID) {
	r.Failed++
	if len(r.FailedIDs) < MaxReportedFailures {
		r.FailedIDs = append(r.FailedIDs, id)
	}
}

// Err is nil for a clean sweep and wraps ErrPartialSweep otherwise.
func (r SweepResult) Err() error {
	switch {
	case r.Aborted != nil:
		return fmt.Errorf("%w: key %s aborted after %d records: %v", ErrPartialSweep, r.Key, r.Scanned, r.Aborted)
	case r.Failed > 0:
		return fmt.Errorf("%w: key %s failed on %d of %d records", ErrPartialSweep, r.Key, r.Failed, r.Scanned)
	default:
		return nil
	}
}
