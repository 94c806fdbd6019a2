package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
)

func TestExecuteWriteStatusAndCounters(t *testing.T) {
	cases := []struct {
		name      string
		fail      error
		status    string
		conflicts int
		retries   int
	}{
		{name: "success", status: "success"},
		{name: "stage validation", fail: pipelines.InvalidShape(), status: string(domainagg.CodeValidation)},
		{name: "missing pipeline", fail: pipelines.ErrNotFound, status: string(domainagg.CodeNotFound)},
		{name: "key exhaustion", fail: attributes.ErrKeyExhaustion, status: string(domainagg.CodeConflict), conflicts: 1},
		{name: "invariant", fail: InvariantError("definition link lost"), status: string(domainagg.CodeInvariantViolation)},
		{name: "retryable", fail: RetryableError("database is locked"), status: string(domainagg.CodeRetryable), retries: 1},
		{name: "unknown", fail: errors.New("boom"), status: string(domainagg.CodeInternal)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			const op = "Pipelines.Pipeline.Test"
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, op, func(_ dbctx.Context) error {
				return tc.fail
			})
			if (tc.fail == nil) != (err == nil) {
				t.Fatalf("error mismatch: fail=%v got=%v", tc.fail, err)
			}
			if tc.fail != nil && !errors.Is(err, tc.fail) {
				t.Fatalf("cause not reachable: %v", err)
			}
			if len(hooks.Operations) != 1 || hooks.Operations[0].Name != op || hooks.Operations[0].Status != tc.status {
				t.Fatalf("operations: %+v", hooks.Operations)
			}
			if len(hooks.Conflicts) != tc.conflicts || len(hooks.Retries) != tc.retries {
				t.Fatalf("counters: conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	hooks := &spyHooks{}
	if err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "  ", func(_ dbctx.Context) error { return nil }); err != nil {
		t.Fatalf("executeWrite: %v", err)
	}
	if hooks.Operations[0].Name != "aggregate.write" {
		t.Fatalf("op name: %q", hooks.Operations[0].Name)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(pipelines.DuplicateName()); got != string(domainagg.CodeValidation) {
		t.Fatalf("duplicate name status: got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveWrite(op, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: op, Status: status})
}

func (h *spyHooks) CountRejection(op string, code domainagg.ErrorCode) {
	switch code {
	case domainagg.CodeConflict:
		h.Conflicts = append(h.Conflicts, op)
	case domainagg.CodeRetryable:
		h.Retries = append(h.Retries, op)
	}
}
