package bnb

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/caresched/core/solver"
)

const free int8 = -1

type family int

const (
	noFamily family = iota
	cover           // unit >= row over positive weights
	pack            // unit <= row over negative weights
)

type row struct {
	vars   []int
	coefs  []int64
	op     solver.Op
	rhs    int64
	minAct int64
	maxAct int64
	maxAbs int64
	free   int

	fam     family
	famW    int64
	famTerm int64
}

type occurrence struct {
	row  int
	coef int64
}

// search holds the state of one branch-and-bound run. The objective is kept
// in minimisation form; maximisation problems are negated on the way in and
// out.
type search struct {
	p        *solver.Problem
	opts     Options
	deadline time.Time

	w      []int64
	val    []int8
	rows   []row
	occ    [][]occurrence
	order  []int
	trail  []int
	queue  []int
	queued []bool

	fixedObj int64
	looseNeg int64
	inFam    []bool
	famSum   int64

	best      []bool
	bestObj   int64
	haveBest  bool
	rootBound int64
	nodes     int64
	timedOut  bool
	proven    bool
}

func newSearch(p *solver.Problem, opts Options, deadline time.Time) *search {
	n := p.NumVars()
	s := &search{
		p:        p,
		opts:     opts,
		deadline: deadline,
		w:        make([]int64, n),
		val:      make([]int8, n),
		occ:      make([][]occurrence, n),
		inFam:    make([]bool, n),
	}
	for i := range s.val {
		s.val[i] = free
	}
	for _, t := range p.Objective {
		s.w[t.Var] += t.Coef
	}
	if p.Sense == solver.Maximize {
		for i := range s.w {
			s.w[i] = -s.w[i]
		}
	}
	for _, c := range p.Constraints {
		s.addRow(c)
	}
	s.queued = make([]bool, len(s.rows))
	s.pickFamilies()
	for v := range s.w {
		if !s.inFam[v] {
			s.looseNeg += min(0, s.w[v])
		}
	}
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		return abs(s.w[s.order[a]]) > abs(s.w[s.order[b]])
	})
	return s
}

func (s *search) addRow(c solver.Constraint) {
	merged := make(map[int]int64, len(c.Terms))
	var vars []int
	for _, t := range c.Terms {
		v := int(t.Var)
		if _, ok := merged[v]; !ok {
			vars = append(vars, v)
		}
		merged[v] += t.Coef
	}
	r := row{op: c.Op, rhs: c.Rhs}
	for _, v := range vars {
		coef := merged[v]
		if coef == 0 {
			continue
		}
		r.vars = append(r.vars, v)
		r.coefs = append(r.coefs, coef)
		r.minAct += min(0, coef)
		r.maxAct += max(0, coef)
		r.maxAbs = max(r.maxAbs, abs(coef))
		s.occ[v] = append(s.occ[v], occurrence{row: len(s.rows), coef: coef})
	}
	r.free = len(r.vars)
	s.rows = append(s.rows, r)
}

// pickFamilies greedily selects pairwise disjoint rows whose structure gives
// a cheap objective bound.
func (s *search) pickFamilies() {
	for i := range s.rows {
		r := &s.rows[i]
		if len(r.vars) == 0 {
			continue
		}
		kind := noFamily
		unit, pos, neg, overlap := true, true, true, false
		for j, v := range r.vars {
			unit = unit && r.coefs[j] == 1
			pos = pos && s.w[v] > 0
			neg = neg && s.w[v] < 0
			overlap = overlap || s.inFam[v]
		}
		switch {
		case !unit || overlap:
		case pos && r.op != solver.LE:
			kind = cover
		case neg && r.op != solver.GE:
			kind = pack
		}
		if kind == noFamily {
			continue
		}
		r.fam = kind
		r.famW = s.w[r.vars[0]]
		for _, v := range r.vars {
			s.inFam[v] = true
			r.famW = min(r.famW, s.w[v])
		}
		r.famTerm = famTermOf(r)
		s.famSum += r.famTerm
	}
}

func famTermOf(r *row) int64 {
	ones := r.minAct
	switch r.fam {
	case cover:
		if need := r.rhs - ones; need > 0 {
			return need * r.famW
		}
	case pack:
		if k := min(r.rhs-ones, int64(r.free)); k > 0 {
			return k * r.famW
		}
	}
	return 0
}

func (s *search) bound() int64 { return s.fixedObj + s.looseNeg + s.famSum }

func (s *search) assign(v int, x int8) {
	s.val[v] = x
	s.trail = append(s.trail, v)
	s.shift(v, x, 1)
}

func (s *search) undo(mark int) {
	for len(s.trail) > mark {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		s.shift(v, s.val[v], -1)
		s.val[v] = free
	}
}

// shift applies (dir=1) or reverts (dir=-1) the effect of fixing v to x.
func (s *search) shift(v int, x int8, dir int64) {
	if x == 1 {
		s.fixedObj += dir * s.w[v]
	}
	if !s.inFam[v] {
		s.looseNeg -= dir * min(0, s.w[v])
	}
	for _, o := range s.occ[v] {
		r := &s.rows[o.row]
		lo, hi := min(0, o.coef), max(0, o.coef)
		if x == 1 {
			r.minAct += dir * (o.coef - lo)
			r.maxAct += dir * (o.coef - hi)
		} else {
			r.minAct -= dir * lo
			r.maxAct -= dir * hi
		}
		r.free -= int(dir)
		if r.fam != noFamily {
			s.famSum -= r.famTerm
			r.famTerm = famTermOf(r)
			s.famSum += r.famTerm
		}
		if dir > 0 && !s.queued[o.row] {
			s.queued[o.row] = true
			s.queue = append(s.queue, o.row)
		}
	}
}

func (s *search) clearQueue() {
	for _, ri := range s.queue {
		s.queued[ri] = false
	}
	s.queue = s.queue[:0]
}

// propagate checks queued rows and fixes every variable whose other value
// would break one of them. It returns false on a conflict.
func (s *search) propagate() bool {
	for len(s.queue) > 0 {
		ri := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.queued[ri] = false
		r := &s.rows[ri]
		if (r.op != solver.GE && r.minAct > r.rhs) || (r.op != solver.LE && r.maxAct < r.rhs) {
			s.clearQueue()
			return false
		}
		if r.free == 0 {
			continue
		}
		if r.op != solver.GE && r.rhs-r.minAct < r.maxAbs {
			slack := r.rhs - r.minAct
			for j, v := range r.vars {
				if c := r.coefs[j]; s.val[v] == free && abs(c) > slack {
					s.assign(v, lowValue(c))
				}
			}
		}
		if r.op != solver.LE && r.maxAct-r.rhs < r.maxAbs {
			need := r.maxAct - r.rhs
			for j, v := range r.vars {
				if c := r.coefs[j]; s.val[v] == free && abs(c) > need {
					s.assign(v, 1-lowValue(c))
				}
			}
		}
	}
	return true
}

// lowValue is the value giving a term its smallest contribution.
func lowValue(coef int64) int8 {
	if coef > 0 {
		return 0
	}
	return 1
}

func (s *search) stopped() bool { return s.timedOut || s.proven }

func (s *search) run() solver.Result {
	for i := range s.rows {
		s.queued[i] = true
		s.queue = append(s.queue, i)
	}
	if !s.propagate() {
		return solver.Result{Status: solver.Infeasible}
	}
	s.rootBound = s.bound()
	if s.opts.LPMaxVars >= 0 && len(s.w) > 0 && len(s.w) <= s.opts.LPMaxVars {
		opt, err := relax(s.relaxation())
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return solver.Result{Status: solver.Infeasible}
		case err == nil:
			s.rootBound = max(s.rootBound, int64(math.Ceil(opt-1e-6)))
		}
	}
	s.dfs(0)
	return s.result()
}

func (s *search) dfs(i int) {
	for i < len(s.order) && s.val[s.order[i]] != free {
		i++
	}
	if s.haveBest && s.bound() >= s.bestObj {
		return
	}
	if i == len(s.order) {
		s.record()
		return
	}
	s.nodes++
	if s.nodes%int64(s.opts.CheckEvery) == 0 && !s.deadline.IsZero() && time.Now().After(s.deadline) {
		s.timedOut = true
	}
	if s.stopped() {
		return
	}
	v := s.order[i]
	first := lowValue(s.w[v])
	if s.w[v] == 0 {
		first = 0
	}
	for _, x := range [2]int8{first, 1 - first} {
		mark := len(s.trail)
		s.assign(v, x)
		if s.propagate() {
			s.dfs(i + 1)
		}
		s.undo(mark)
		if s.stopped() {
			return
		}
	}
}

func (s *search) record() {
	if s.haveBest && s.fixedObj >= s.bestObj {
		return
	}
	if s.best == nil {
		s.best = make([]bool, len(s.val))
	}
	for i, x := range s.val {
		s.best[i] = x == 1
	}
	s.bestObj = s.fixedObj
	s.haveBest = true
	if s.bestObj <= s.rootBound {
		s.proven = true
	}
}

func (s *search) result() solver.Result {
	res := solver.Result{Nodes: s.nodes}
	switch {
	case s.haveBest && (s.proven || !s.timedOut):
		res.Status = solver.Optimal
	case s.haveBest:
		res.Status = solver.Feasible
	case !s.timedOut:
		res.Status = solver.Infeasible
	default:
		res.Status = solver.Unknown
	}
	if s.haveBest {
		res.Values = s.best
		res.Objective = s.bestObj
		if s.p.Sense == solver.Maximize {
			res.Objective = -res.Objective
		}
	}
	return res
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
