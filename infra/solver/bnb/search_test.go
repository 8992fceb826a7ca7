package bnb

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/caresched/core/factory"
	"github.com/kilianp07/caresched/core/solver"
)

func terms(vs ...solver.Var) []solver.Term {
	ts := make([]solver.Term, len(vs))
	for i, v := range vs {
		ts[i] = solver.Term{Var: v, Coef: 1}
	}
	return ts
}

func TestSolveCover(t *testing.T) {
	m := New(Options{}).NewModel()
	x, y, z := m.NewBoolVar("x"), m.NewBoolVar("y"), m.NewBoolVar("z")
	m.AddConstraint(terms(x, y), solver.GE, 1)
	m.AddConstraint(terms(y, z), solver.GE, 1)
	m.SetObjective(solver.Minimize, terms(x, y, z))

	res, err := m.Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, res.Status)
	assert.Equal(t, int64(1), res.Objective)
	assert.True(t, res.Value(y))
	assert.False(t, res.Value(x) || res.Value(z))
}

func TestSolvePacking(t *testing.T) {
	m := New(Options{LPMaxVars: -1}).NewModel()
	a, b, c := m.NewBoolVar("a"), m.NewBoolVar("b"), m.NewBoolVar("c")
	m.AddConstraint(terms(a, b), solver.LE, 1)
	m.AddConstraint(terms(b, c), solver.LE, 1)
	m.SetObjective(solver.Maximize, terms(a, b, c))

	res, err := m.Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, res.Status)
	assert.Equal(t, int64(2), res.Objective)
	assert.Equal(t, []bool{true, false, true}, res.Values)
}

func TestSolveEquality(t *testing.T) {
	m := New(Options{}).NewModel()
	x, y, z := m.NewBoolVar("x"), m.NewBoolVar("y"), m.NewBoolVar("z")
	m.AddConstraint(terms(x, y, z), solver.EQ, 2)
	m.SetObjective(solver.Minimize, []solver.Term{{Var: x, Coef: 3}, {Var: y, Coef: 2}, {Var: z, Coef: 1}})

	res, err := m.Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, res.Status)
	assert.Equal(t, int64(3), res.Objective)
}

func TestSolveInfeasible(t *testing.T) {
	m := New(Options{LPMaxVars: -1}).NewModel()
	x, y := m.NewBoolVar("x"), m.NewBoolVar("y")
	m.AddConstraint(terms(x, y), solver.GE, 3)

	res, err := m.Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, res.Status)
	assert.Nil(t, res.Values)
}

func TestSolveMalformed(t *testing.T) {
	m := New(Options{}).NewModel()
	m.NewBoolVar("x")
	m.AddConstraint([]solver.Term{{Var: 3, Coef: 1}}, solver.LE, 1)
	_, err := m.Solve(time.Second)
	assert.ErrorIs(t, err, solver.ErrMalformed)
}

func TestSolveBudgetWithoutIncumbent(t *testing.T) {
	m := New(Options{LPMaxVars: -1, CheckEvery: 1}).NewModel()
	vs := make([]solver.Var, 100)
	for i := range vs {
		vs[i] = m.NewBoolVar("v")
	}
	m.AddConstraint(terms(vs...), solver.LE, 50)
	m.SetObjective(solver.Maximize, terms(vs...))

	res, err := m.Solve(time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, solver.Unknown, res.Status)
}

func TestRelaxOverride(t *testing.T) {
	orig := relax
	defer func() { relax = orig }()

	build := func() solver.Model {
		m := New(Options{}).NewModel()
		x, y := m.NewBoolVar("x"), m.NewBoolVar("y")
		m.AddConstraint(terms(x, y), solver.GE, 1)
		m.SetObjective(solver.Minimize, terms(x, y))
		return m
	}

	relax = func(relaxation) (float64, error) { return 0, lp.ErrInfeasible }
	res, err := build().Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, res.Status)

	calls := 0
	relax = func(relaxation) (float64, error) { calls++; return 0, errors.New("singular") }
	res, err = build().Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, solver.Optimal, res.Status, "relaxation failures are ignored")
	assert.Equal(t, int64(1), res.Objective)
}

func TestRelaxationThreshold(t *testing.T) {
	orig := relax
	defer func() { relax = orig }()
	calls := 0
	relax = func(relaxation) (float64, error) { calls++; return 1, nil }

	// Two caretaker/patient pairs over six days of ten hours.
	for _, tc := range []struct {
		vars  int
		calls int
	}{{120, 1}, {defaultLPMaxVars + 1, 0}} {
		calls = 0
		m := New(Options{}).NewModel()
		vs := make([]solver.Var, tc.vars)
		for i := range vs {
			vs[i] = m.NewBoolVar("x")
		}
		m.AddConstraint(terms(vs...), solver.GE, 1)
		m.SetObjective(solver.Minimize, terms(vs...))
		res, err := m.Solve(time.Second)
		if err != nil {
			t.Fatalf("%d vars: %v", tc.vars, err)
		}
		if calls != tc.calls {
			t.Fatalf("%d vars: relaxation ran %d times, want %d", tc.vars, calls, tc.calls)
		}
		if res.Status != solver.Optimal || res.Objective != 1 {
			t.Fatalf("%d vars: got %s objective %d", tc.vars, res.Status, res.Objective)
		}
	}
}

func TestSolveRelaxationValue(t *testing.T) {
	m := New(Options{}).NewModel().(*Model)
	x, y, z := m.NewBoolVar("x"), m.NewBoolVar("y"), m.NewBoolVar("z")
	m.AddConstraint(terms(x, y), solver.GE, 1)
	m.AddConstraint(terms(y, z), solver.GE, 1)
	m.AddConstraint(terms(x, z), solver.GE, 1)
	m.SetObjective(solver.Minimize, terms(x, y, z))

	s := newSearch(&m.Problem, m.opts, time.Time{})
	opt, err := solveRelaxation(s.relaxation())
	require.NoError(t, err)
	// x=y=z=0.5 is the fractional optimum
	assert.InDelta(t, 1.5, opt, 1e-6)

	res, err := m.Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, res.Status)
	assert.Equal(t, int64(2), res.Objective)
}

// TestAgainstEnumeration compares the search with brute force on small
// random models.
func TestAgainstEnumeration(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 60; round++ {
		n := 3 + rng.Intn(6)
		m := New(Options{LPMaxVars: []int{-1, 64}[round%2]}).NewModel().(*Model)
		vs := make([]solver.Var, n)
		for i := range vs {
			vs[i] = m.NewBoolVar("v")
		}
		for k := 0; k < 1+rng.Intn(4); k++ {
			var ts []solver.Term
			for _, v := range vs {
				if rng.Intn(2) == 0 {
					ts = append(ts, solver.Term{Var: v, Coef: int64(rng.Intn(5) - 2)})
				}
			}
			m.AddConstraint(ts, solver.Op(rng.Intn(3)), int64(rng.Intn(4)-1))
		}
		var obj []solver.Term
		for _, v := range vs {
			obj = append(obj, solver.Term{Var: v, Coef: int64(rng.Intn(7) - 3)})
		}
		sense := solver.Sense(rng.Intn(2))
		m.SetObjective(sense, obj)

		want, found := enumerate(&m.Problem, n, sense)
		res, err := m.Solve(5 * time.Second)
		require.NoError(t, err)
		if !found {
			require.Equal(t, solver.Infeasible, res.Status, "round %d", round)
			continue
		}
		require.Equal(t, solver.Optimal, res.Status, "round %d", round)
		require.Equal(t, want, res.Objective, "round %d", round)
		got, ok := m.Evaluate(res.Values)
		require.True(t, ok, "round %d returned an infeasible assignment", round)
		require.Equal(t, want, got)
	}
}

func enumerate(p *solver.Problem, n int, sense solver.Sense) (int64, bool) {
	best, found := int64(math.MaxInt64), false
	if sense == solver.Maximize {
		best = math.MinInt64
	}
	values := make([]bool, n)
	for mask := 0; mask < 1<<n; mask++ {
		for i := range values {
			values[i] = mask&(1<<i) != 0
		}
		obj, ok := p.Evaluate(values)
		if !ok {
			continue
		}
		found = true
		if (sense == solver.Minimize && obj < best) || (sense == solver.Maximize && obj > best) {
			best = obj
		}
	}
	return best, found
}

func TestModelsAreIndependent(t *testing.T) {
	b := New(Options{})
	m1, m2 := b.NewModel(), b.NewModel()
	v1 := m1.NewBoolVar("x")
	v2 := m2.NewBoolVar("x")
	assert.Equal(t, v1, v2)
	m1.AddConstraint(terms(v1), solver.GE, 1)

	res, err := m2.Solve(time.Second)
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, res.Status)
	assert.False(t, res.Value(v2))
}

func TestRegistered(t *testing.T) {
	b, err := solver.NewBackend(factory.ModuleConfig{Type: Name, Conf: map[string]any{"lp_max_vars": 8}})
	require.NoError(t, err)
	require.IsType(t, &Backend{}, b)
	assert.Equal(t, 8, b.(*Backend).opts.LPMaxVars)

	_, err = solver.NewBackend(factory.ModuleConfig{Type: "cp-sat"})
	assert.ErrorIs(t, err, solver.ErrUnknownBackend)
}
