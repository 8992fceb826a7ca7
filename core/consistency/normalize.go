// Package consistency rewrites schedules so every patient keeps one
// caretaker per profession.
package consistency

import "github.com/kilianp07/caresched/core/model"

// Normalize returns a copy of s in which, for each patient, every assignment
// of a given profession uses the first caretaker recorded for that
// profession. Day, hour and order are kept. The substituted caretaker's
// availability at the rewritten slot is not checked.
func Normalize(s *model.Schedule) *model.Schedule {
	first := make(map[string]map[model.Profession]string)
	out := model.NewSchedule()
	for _, a := range s.Assignments() {
		byProf, ok := first[a.Patient]
		if !ok {
			byProf = make(map[model.Profession]string)
			first[a.Patient] = byProf
		}
		if c, seen := byProf[a.Profession]; seen {
			a.Caretaker = c
		} else {
			byProf[a.Profession] = a.Caretaker
		}
		out.Add(a)
	}
	return out
}

// Substitutions counts the assignments whose caretaker differs between
// before and after. Both schedules must come from Normalize's input/output.
func Substitutions(before, after *model.Schedule) int {
	a, b := before.Assignments(), after.Assignments()
	n := 0
	for i := range a {
		if i < len(b) && a[i].Caretaker != b[i].Caretaker {
			n++
		}
	}
	return n
}
