package solver

import "fmt"

// Constraint is sum(Terms) Op Rhs.
type Constraint struct {
	Terms []Term
	Op    Op
	Rhs   int64
}

// Problem stores a model's declarations. Backends embed it and add Solve.
type Problem struct {
	Names       []string
	Constraints []Constraint
	Sense       Sense
	Objective   []Term
}

// NewBoolVar declares a variable and returns its handle.
func (p *Problem) NewBoolVar(name string) Var {
	p.Names = append(p.Names, name)
	return Var(len(p.Names) - 1)
}

// AddConstraint records sum(terms) op rhs. The slice is copied.
func (p *Problem) AddConstraint(terms []Term, op Op, rhs int64) {
	ts := make([]Term, len(terms))
	copy(ts, terms)
	p.Constraints = append(p.Constraints, Constraint{Terms: ts, Op: op, Rhs: rhs})
}

// SetObjective replaces the objective.
func (p *Problem) SetObjective(sense Sense, terms []Term) {
	p.Sense = sense
	p.Objective = append(p.Objective[:0], terms...)
}

// NumVars returns the number of declared variables.
func (p *Problem) NumVars() int { return len(p.Names) }

// Validate checks that every term references a declared variable.
func (p *Problem) Validate() error {
	check := func(where string, ts []Term) error {
		for _, t := range ts {
			if int(t.Var) < 0 || int(t.Var) >= len(p.Names) {
				return fmt.Errorf("%w: %s references variable %d of %d", ErrMalformed, where, t.Var, len(p.Names))
			}
		}
		return nil
	}
	for i, c := range p.Constraints {
		if c.Op != LE && c.Op != EQ && c.Op != GE {
			return fmt.Errorf("%w: constraint %d has operator %v", ErrMalformed, i, c.Op)
		}
		if err := check(fmt.Sprintf("constraint %d", i), c.Terms); err != nil {
			return err
		}
	}
	if p.Sense != Minimize && p.Sense != Maximize {
		return fmt.Errorf("%w: objective sense %d", ErrMalformed, p.Sense)
	}
	return check("objective", p.Objective)
}

// Evaluate returns the objective value of values and whether every
// constraint holds.
func (p *Problem) Evaluate(values []bool) (obj int64, feasible bool) {
	sum := func(ts []Term) int64 {
		var s int64
		for _, t := range ts {
			if int(t.Var) < len(values) && values[t.Var] {
				s += t.Coef
			}
		}
		return s
	}
	feasible = true
	for _, c := range p.Constraints {
		s := sum(c.Terms)
		switch c.Op {
		case LE:
			feasible = feasible && s <= c.Rhs
		case GE:
			feasible = feasible && s >= c.Rhs
		case EQ:
			feasible = feasible && s == c.Rhs
		}
	}
	return sum(p.Objective), feasible
}
