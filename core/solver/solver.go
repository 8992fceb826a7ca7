// Package solver describes the boolean optimization capability the
// scheduling engine delegates its search to. A Backend hands out fresh,
// independently scoped models; nothing is shared between two models.
package solver

import (
	"errors"
	"fmt"
	"time"
)

// Var identifies a boolean variable inside one Model.
type Var int

// Term is Coef * Var inside a linear expression.
type Term struct {
	Var  Var
	Coef int64
}

// Op is the comparison of a linear constraint.
type Op int

const (
	LE Op = iota
	EQ
	GE
)

func (o Op) String() string {
	switch o {
	case LE:
		return "<="
	case EQ:
		return "="
	case GE:
		return ">="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Sense selects the objective direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Status reports how a solve ended.
type Status int

const (
	// Unknown: the budget ran out before any feasible assignment was found.
	Unknown Status = iota
	// Optimal: the returned assignment is proven optimal.
	Optimal
	// Feasible: the budget ran out holding a feasible, unproven assignment.
	Feasible
	// Infeasible: no assignment satisfies the constraints.
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// HasSolution reports whether a Result with this status carries values.
func (s Status) HasSolution() bool { return s == Optimal || s == Feasible }

// Result is the outcome of Model.Solve. Values is indexed by Var and only
// meaningful when Status.HasSolution().
type Result struct {
	Status    Status
	Values    []bool
	Objective int64
	Nodes     int64
	Elapsed   time.Duration
}

// Value returns the value of v in the result.
func (r Result) Value(v Var) bool {
	return int(v) >= 0 && int(v) < len(r.Values) && r.Values[v]
}

// Model is one optimization problem over boolean variables.
type Model interface {
	NewBoolVar(name string) Var
	AddConstraint(terms []Term, op Op, rhs int64)
	SetObjective(sense Sense, terms []Term)
	// Solve searches for an assignment within budget. A non-positive budget
	// means no limit. Errors are reserved for malformed models; running out
	// of time is reported through the status.
	Solve(budget time.Duration) (Result, error)
}

// Backend creates models.
type Backend interface {
	NewModel() Model
}

// BackendFunc adapts a function to Backend.
type BackendFunc func() Model

// NewModel calls f.
func (f BackendFunc) NewModel() Model { return f() }

// ErrMalformed is returned by Solve for models that reference unknown
// variables or carry an invalid operator.
var ErrMalformed = errors.New("solver: malformed model")
