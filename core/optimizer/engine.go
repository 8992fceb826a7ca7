// Package optimizer reshapes the timing of an existing schedule under hard
// scheduling constraints. It models every observed caretaker-patient pair
// at every slot of the week as a boolean variable, hands the model to a
// solver backend and rebuilds the schedule from the answer.
package optimizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/caresched/core/logger"
	"github.com/kilianp07/caresched/core/metrics"
	"github.com/kilianp07/caresched/core/solver"
)

// DefaultBudget caps a solve when the caller gives no budget.
const DefaultBudget = 60 * time.Second

// Outcome summarises how a run ended.
type Outcome string

const (
	// OutcomeEmpty: the input had no assignment, the solver was not called.
	OutcomeEmpty Outcome = "empty"
	// OutcomeSolved: the output was extracted from a solver answer.
	OutcomeSolved Outcome = "solved"
	// OutcomeFallback: the solver found nothing usable, the input is returned.
	OutcomeFallback Outcome = "fallback"
)

// Report describes one run.
type Report struct {
	RunID             string
	Mode              Mode
	Outcome           Outcome
	Status            solver.Status
	Variables         int
	Constraints       int
	InputAssignments  int
	OutputAssignments int
	Objective         int64
	Nodes             int64
	Started           time.Time
	Duration          time.Duration
}

// Fallback reports whether the input was returned unchanged.
func (r Report) Fallback() bool { return r.Outcome == OutcomeFallback }

// StatusLabel is the solver status, or EMPTY when no solve happened.
func (r Report) StatusLabel() string {
	if r.Outcome == OutcomeEmpty {
		return "EMPTY"
	}
	return r.Status.String()
}

// Event converts the report for metrics sinks.
func (r Report) Event() metrics.RunEvent {
	return metrics.RunEvent{
		RunID:             r.RunID,
		Mode:              string(r.Mode),
		Status:            r.StatusLabel(),
		Fallback:          r.Fallback(),
		Variables:         r.Variables,
		Constraints:       r.Constraints,
		InputAssignments:  r.InputAssignments,
		OutputAssignments: r.OutputAssignments,
		Duration:          r.Duration,
		Time:              r.Started,
	}
}

// Engine runs optimizations. It holds no per-run state, so one Engine may
// serve concurrent calls as long as its backend hands out independent
// models.
type Engine struct {
	backend solver.Backend
	sink    metrics.RunRecorder
	log     logger.Logger
}

// New creates an Engine. sink and log may be nil.
func New(backend solver.Backend, sink metrics.RunRecorder, log logger.Logger) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("optimizer: solver backend is required")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{backend: backend, sink: sink, log: logger.OrNop(log)}, nil
}

// Optimize rebuilds snap under the hard constraints and the objective of
// mode, solving for at most budget (DefaultBudget when budget <= 0). The
// returned snapshot has the variant of snap. An input without assignments
// yields an empty result without calling the solver. When the solver ends
// INFEASIBLE or UNKNOWN, snap itself is returned and the report says so.
// Errors are returned only for invalid input or a failing backend.
func (e *Engine) Optimize(snap Snapshot, mode Mode, budget time.Duration) (Snapshot, Report, error) {
	rep := Report{RunID: uuid.NewString(), Mode: mode, Started: time.Now()}
	if !mode.Valid() {
		return nil, rep, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	in, err := snap.Schedule()
	if err != nil {
		e.log.Warnf("run %s: rejected input: %v", rep.RunID, err)
		return nil, rep, err
	}
	rep.InputAssignments = in.Len()

	if in.Empty() {
		rep.Outcome = OutcomeEmpty
		rep = e.record(rep)
		return snap.WithSchedule(in), rep, nil
	}

	pb, err := buildProblem(e.backend.NewModel(), in, mode)
	if err != nil {
		e.log.Warnf("run %s: %v", rep.RunID, err)
		return nil, rep, err
	}
	rep.Variables = len(pb.cells)
	rep.Constraints = pb.constraints

	res, err := pb.m.Solve(budget)
	if err != nil {
		e.log.Errorf("run %s: solver failed: %v", rep.RunID, err)
		return nil, rep, fmt.Errorf("optimizer: solve: %w", err)
	}
	rep.Status = res.Status
	rep.Nodes = res.Nodes
	if !res.Status.HasSolution() {
		rep.Outcome = OutcomeFallback
		rep.OutputAssignments = in.Len()
		e.log.Warnf("fallback: solver status %s, returning input", res.Status)
		rep = e.record(rep)
		return snap, rep, nil
	}

	out := pb.extract(res)
	rep.Outcome = OutcomeSolved
	rep.Objective = res.Objective
	rep.OutputAssignments = out.Len()
	rep = e.record(rep)
	return snap.WithSchedule(out), rep, nil
}

func (e *Engine) record(rep Report) Report {
	rep.Duration = time.Since(rep.Started)
	e.log.Infow("optimization finished", map[string]any{
		"run_id":      rep.RunID,
		"mode":        string(rep.Mode),
		"status":      rep.StatusLabel(),
		"outcome":     string(rep.Outcome),
		"variables":   rep.Variables,
		"constraints": rep.Constraints,
		"input":       rep.InputAssignments,
		"output":      rep.OutputAssignments,
		"nodes":       rep.Nodes,
		"duration":    rep.Duration.String(),
	})
	if err := e.sink.RecordRun(rep.Event()); err != nil {
		e.log.Errorf("run %s: record metrics: %v", rep.RunID, err)
	}
	return rep
}
