package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/caresched/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = sink.RecordRun(coremetrics.RunEvent{Mode: "minimal", Status: "OPTIMAL", OutputAssignments: 4, Duration: time.Second})
	_ = sink.RecordRun(coremetrics.RunEvent{Mode: "minimal", Status: "UNKNOWN", Fallback: true, OutputAssignments: 9})
	_ = sink.RecordGeneration(coremetrics.GenerationEvent{Unfilled: 5})

	if v := testutil.ToFloat64(sink.runs.WithLabelValues("minimal", "OPTIMAL")); v != 1 {
		t.Fatalf("expected 1 optimal run got %v", v)
	}
	if v := testutil.ToFloat64(sink.assignments.WithLabelValues("minimal")); v != 9 {
		t.Fatalf("expected gauge 9 got %v", v)
	}
	if v := testutil.ToFloat64(sink.unfilled); v != 5 {
		t.Fatalf("expected 5 unfilled got %v", v)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, n := range []string{"optimizer_runs_total", "optimizer_solve_seconds", "optimizer_assignments", "generator_unfilled_slots_total"} {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}

func TestPromSinkReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	s1, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	s2, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = s1.RecordGeneration(coremetrics.GenerationEvent{Unfilled: 1})
	_ = s2.RecordGeneration(coremetrics.GenerationEvent{Unfilled: 2})
	if v := testutil.ToFloat64(s1.unfilled); v != 3 {
		t.Fatalf("expected shared counter at 3 got %v", v)
	}
}
