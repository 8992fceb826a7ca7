// Package bnb is a depth-first branch-and-bound backend for the solver port.
// It propagates linear constraints over 0/1 variables, bounds the objective
// with disjoint covering or packing rows, and tightens the root bound with
// an LP relaxation on small models.
package bnb

import (
	"time"

	"github.com/kilianp07/caresched/core/factory"
	"github.com/kilianp07/caresched/core/solver"
)

// Name is the registry key of this backend.
const Name = "bnb"

// Options tunes the search.
type Options struct {
	// LPMaxVars is the largest model that gets an LP bound at the root.
	// Negative disables the relaxation.
	LPMaxVars int `json:"lp_max_vars"`
	// CheckEvery is the number of nodes between deadline checks.
	CheckEvery int `json:"check_every"`
}

const (
	defaultLPMaxVars  = 128
	defaultCheckEvery = 256
)

func (o *Options) setDefaults() {
	if o.LPMaxVars == 0 {
		o.LPMaxVars = defaultLPMaxVars
	}
	if o.CheckEvery <= 0 {
		o.CheckEvery = defaultCheckEvery
	}
}

// Backend creates bnb models.
type Backend struct {
	opts Options
}

// New returns a Backend using opts.
func New(opts Options) *Backend {
	opts.setDefaults()
	return &Backend{opts: opts}
}

// NewModel returns an empty model.
func (b *Backend) NewModel() solver.Model {
	return &Model{opts: b.opts}
}

// Model is a solver.Model solved by branch and bound.
type Model struct {
	solver.Problem
	opts Options
}

// Solve runs the search until it is exhausted or budget elapses.
func (m *Model) Solve(budget time.Duration) (solver.Result, error) {
	if err := m.Validate(); err != nil {
		return solver.Result{}, err
	}
	start := time.Now()
	var deadline time.Time
	if budget > 0 {
		deadline = start.Add(budget)
	}
	s := newSearch(&m.Problem, m.opts, deadline)
	res := s.run()
	res.Elapsed = time.Since(start)
	return res, nil
}

// init registers the backend under Name.
func init() {
	_ = solver.RegisterBackend(Name, func(conf map[string]any) (solver.Backend, error) {
		var opts Options
		if err := factory.Decode(conf, &opts); err != nil {
			return nil, err
		}
		return New(opts), nil
	})
}
