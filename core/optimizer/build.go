package optimizer

import (
	"fmt"

	"github.com/kilianp07/caresched/core/model"
	"github.com/kilianp07/caresched/core/solver"
)

type pair struct {
	caretaker string
	patient   string
}

type cell struct {
	pair int
	day  model.Day
	hour model.Hour
}

// problem is the boolean model of one run: one variable per observed pair
// and slot of the weekly grid.
type problem struct {
	m           solver.Model
	pairs       []pair
	cells       []cell
	vars        []solver.Var
	input       []bool
	constraints int
}

func slotIndex(d model.Day, h model.Hour) int {
	return int(d)*int(model.MaxHour-model.MinHour+1) + int(h-model.MinHour)
}

// buildProblem declares the variables, the hard constraints C1-C3, the
// retention floors of minimal mode and the mode's objective on m.
func buildProblem(m solver.Model, s *model.Schedule, mode Mode) (*problem, error) {
	pb := &problem{m: m}
	pairIndex := make(map[pair]int)
	inputCells := make(map[cell]bool)
	for _, a := range s.Assignments() {
		if a.Caretaker == "" || a.Patient == "" {
			return nil, &ModelBuildError{Caretaker: a.Caretaker, Patient: a.Patient, Reason: "assignment without caretaker or patient"}
		}
		if !a.Day.Valid() || !a.Hour.Valid() {
			return nil, &ModelBuildError{Caretaker: a.Caretaker, Patient: a.Patient, Reason: fmt.Sprintf("slot %s outside the weekly grid", a.Slot())}
		}
		k := pair{a.Caretaker, a.Patient}
		idx, ok := pairIndex[k]
		if !ok {
			idx = len(pb.pairs)
			pairIndex[k] = idx
			pb.pairs = append(pb.pairs, k)
		}
		inputCells[cell{idx, a.Day, a.Hour}] = true
	}

	vars := make([][model.SlotsPerWeek]solver.Var, len(pb.pairs))
	for i, p := range pb.pairs {
		for _, d := range model.Days {
			for _, h := range model.Hours() {
				c := cell{i, d, h}
				v := m.NewBoolVar(fmt.Sprintf("x[%s|%s|%s|%d]", p.caretaker, p.patient, d, h))
				vars[i][slotIndex(d, h)] = v
				pb.vars = append(pb.vars, v)
				pb.cells = append(pb.cells, c)
				pb.input = append(pb.input, inputCells[c])
			}
		}
	}

	byPatient := groupPairs(pb.pairs, func(p pair) string { return p.patient })
	byCaretaker := groupPairs(pb.pairs, func(p pair) string { return p.caretaker })

	atMostOne := func(ts []solver.Term) {
		if len(ts) > 1 {
			m.AddConstraint(ts, solver.LE, 1)
			pb.constraints++
		}
	}
	slotTerms := func(pairs []int, d model.Day, h model.Hour) []solver.Term {
		ts := make([]solver.Term, len(pairs))
		for j, pi := range pairs {
			ts[j] = solver.Term{Var: vars[pi][slotIndex(d, h)], Coef: 1}
		}
		return ts
	}
	dayTerms := func(pairs []int, d model.Day) []solver.Term {
		var ts []solver.Term
		for _, pi := range pairs {
			for _, h := range model.Hours() {
				ts = append(ts, solver.Term{Var: vars[pi][slotIndex(d, h)], Coef: 1})
			}
		}
		return ts
	}

	// C1: a patient sees at most one caretaker per slot.
	for _, g := range byPatient {
		for _, d := range model.Days {
			for _, h := range model.Hours() {
				atMostOne(slotTerms(g.pairs, d, h))
			}
		}
	}
	// C2: a pair meets at most once per day.
	for i := range pb.pairs {
		for _, d := range model.Days {
			atMostOne(dayTerms([]int{i}, d))
		}
	}
	// C3: a caretaker treats at most one patient per slot.
	for _, g := range byCaretaker {
		for _, d := range model.Days {
			for _, h := range model.Hours() {
				atMostOne(slotTerms(g.pairs, d, h))
			}
		}
	}

	if mode == Minimal {
		worked := make(map[string]map[model.Day]bool)
		treated := make(map[string]map[model.Day]bool)
		for _, a := range s.Assignments() {
			mark(worked, a.Caretaker, a.Day)
			mark(treated, a.Patient, a.Day)
		}
		floor := func(groups []group, days map[string]map[model.Day]bool) {
			for _, g := range groups {
				for _, d := range model.Days {
					if days[g.key][d] {
						m.AddConstraint(dayTerms(g.pairs, d), solver.GE, 1)
						pb.constraints++
					}
				}
			}
		}
		floor(byCaretaker, worked)
		floor(byPatient, treated)
	}

	pb.setObjective(mode)
	return pb, nil
}

// setObjective weighs every variable so that the number of true variables
// dominates and, among equal counts, slots of the input are preferred.
func (pb *problem) setObjective(mode Mode) {
	n := int64(len(pb.cells)) + 1
	terms := make([]solver.Term, len(pb.cells))
	for i, in := range pb.input {
		w := n
		switch {
		case mode == Minimal && !in, mode == CoverageMax && in:
			w = n + 1
		}
		terms[i] = solver.Term{Var: pb.vars[i], Coef: w}
	}
	sense := solver.Minimize
	if mode == CoverageMax {
		sense = solver.Maximize
	}
	pb.m.SetObjective(sense, terms)
}

// extract turns the true variables of res into a schedule.
func (pb *problem) extract(res solver.Result) *model.Schedule {
	out := model.NewSchedule()
	for i, c := range pb.cells {
		if res.Value(pb.vars[i]) {
			p := pb.pairs[c.pair]
			out.Add(model.Assignment{Day: c.day, Hour: c.hour, Caretaker: p.caretaker, Patient: p.patient})
		}
	}
	return out
}

type group struct {
	key   string
	pairs []int
}

func groupPairs(pairs []pair, key func(pair) string) []group {
	index := make(map[string]int)
	var out []group
	for i, p := range pairs {
		k := key(p)
		gi, ok := index[k]
		if !ok {
			gi = len(out)
			index[k] = gi
			out = append(out, group{key: k})
		}
		out[gi].pairs = append(out[gi].pairs, i)
	}
	return out
}

func mark(m map[string]map[model.Day]bool, key string, d model.Day) {
	if m[key] == nil {
		m[key] = make(map[model.Day]bool)
	}
	m[key][d] = true
}
