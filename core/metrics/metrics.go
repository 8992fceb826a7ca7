package metrics

import "time"

// RunEvent describes one optimization run.
type RunEvent struct {
	RunID             string
	Mode              string
	Status            string
	Fallback          bool
	Variables         int
	Constraints       int
	InputAssignments  int
	OutputAssignments int
	Duration          time.Duration
	Time              time.Time
}

// RunRecorder records optimization runs.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// GenerationEvent describes one generator run.
type GenerationEvent struct {
	Caretakers    int
	Patients      int
	Filled        int
	Unfilled      int
	Substitutions int
	Time          time.Time
}

// GenerationRecorder records generator runs.
type GenerationRecorder interface {
	RecordGeneration(ev GenerationEvent) error
}

// MetricsSink records every telemetry event of the service.
type MetricsSink interface {
	RunRecorder
	GenerationRecorder
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error               { return nil }
func (NopSink) RecordGeneration(GenerationEvent) error { return nil }

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the run to all sinks and returns the first error.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordGeneration forwards the generation to all sinks and returns the first error.
func (m *MultiSink) RecordGeneration(ev GenerationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordGeneration(ev); err != nil {
			return err
		}
	}
	return nil
}
