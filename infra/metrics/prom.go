package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/caresched/core/metrics"
)

// PromSink records optimization and generation runs in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	solve       *prometheus.HistogramVec
	assignments *prometheus.GaugeVec
	unfilled    prometheus.Counter
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_runs_total",
		Help: "Optimization runs by mode and solver status",
	}, []string{"mode", "status"})
	solve := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_solve_seconds",
		Help:    "Wall time of optimization runs",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
	}, []string{"mode"})
	assignments := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimizer_assignments",
		Help: "Assignments in the last optimization output",
	}, []string{"mode"})
	unfilled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generator_unfilled_slots_total",
		Help: "Caretaker slots left empty after the retry bound",
	})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if solve, err = register(reg, solve); err != nil {
		return nil, err
	}
	if assignments, err = register(reg, assignments); err != nil {
		return nil, err
	}
	if unfilled, err = register(reg, unfilled); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, solve: solve, assignments: assignments, unfilled: unfilled}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and observes its duration.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Mode, ev.Status).Inc()
	s.solve.WithLabelValues(ev.Mode).Observe(ev.Duration.Seconds())
	s.assignments.WithLabelValues(ev.Mode).Set(float64(ev.OutputAssignments))
	return nil
}

// RecordGeneration adds the unfilled slots of a generator run.
func (s *PromSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	s.unfilled.Add(float64(ev.Unfilled))
	return nil
}
