package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	m.IncAggregateConflict("op")
	m.ObserveSweep("clean", 1, 1, 0, time.Millisecond)
	m.ObserveN8N("fetch", "ok", 3, time.Millisecond)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
}

func TestWritePrometheusExposition(t *testing.T) {
	m := newMetrics()
	m.ObserveAggregateOperation("Pipelines.Pipeline.Create", "success", 20*time.Millisecond)
	m.IncAggregateConflict("Pipelines.Pipeline.Create")
	m.ObserveSweep("partial", 10, 8, 2, time.Second)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`pl_aggregate_operations_total{operation="Pipelines.Pipeline.Create",status="success"} 1.000000`,
		`pl_aggregate_conflicts_total{operation="Pipelines.Pipeline.Create"} 1.000000`,
		`pl_attribute_sweep_records_total{result="failed"} 2.000000`,
		`pl_aggregate_operation_duration_seconds_bucket{operation="Pipelines.Pipeline.Create",status="success",le="0.025"} 1`,
		`# TYPE pl_attribute_sweep_duration_seconds histogram`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in exposition:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{`a"b\c`})
	if got != `{route="a\"b\\c"}` {
		t.Fatalf("labelString: %s", got)
	}
	if got := withLe("", "+Inf"); got != `{le="+Inf"}` {
		t.Fatalf("withLe empty: %s", got)
	}
	if got := labelString([]string{"a", "b"}, []string{"x"}); got != `{a="x",b="unknown"}` {
		t.Fatalf("missing label value: %s", got)
	}
}
