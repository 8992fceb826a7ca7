package bnb

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/caresched/core/solver"
)

// relaxation is the LP "minimize c·x s.t. G x <= h" with every variable
// boxed into its current domain.
type relaxation struct {
	c []float64
	g *mat.Dense
	h []float64
}

// relax points to the function solving the root relaxation. It can be
// overridden in tests.
var relax = solveRelaxation

// solveRelaxation runs the simplex method and returns the optimal value.
func solveRelaxation(r relaxation) (opt float64, err error) {
	// gonum panics on shapes it cannot factorize.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lp relaxation: %v", rec)
		}
	}()
	cStd, aStd, bStd := lp.Convert(r.c, r.g, r.h, nil, nil)
	opt, _, err = lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	return opt, err
}

func (s *search) relaxation() relaxation {
	n := len(s.w)
	var rows [][]float64
	var h []float64
	add := func(sign float64, r *row) {
		coefs := make([]float64, n)
		for j, v := range r.vars {
			coefs[v] = sign * float64(r.coefs[j])
		}
		rows = append(rows, coefs)
		h = append(h, sign*float64(r.rhs))
	}
	for i := range s.rows {
		r := &s.rows[i]
		if r.op != solver.GE {
			add(1, r)
		}
		if r.op != solver.LE {
			add(-1, r)
		}
	}
	for v := 0; v < n; v++ {
		lo, hi := 0.0, 1.0
		if s.val[v] != free {
			lo, hi = float64(s.val[v]), float64(s.val[v])
		}
		upper := make([]float64, n)
		upper[v] = 1
		lower := make([]float64, n)
		lower[v] = -1
		rows = append(rows, upper, lower)
		h = append(h, hi, -lo)
	}
	g := mat.NewDense(len(rows), n, nil)
	for i, coefs := range rows {
		g.SetRow(i, coefs)
	}
	c := make([]float64, n)
	for v, w := range s.w {
		c[v] = float64(w)
	}
	return relaxation{c: c, g: g, h: h}
}
