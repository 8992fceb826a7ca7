package model

import (
	"fmt"
	"sort"
)

// CaretakerView maps caretaker -> day -> hour -> patient.
type CaretakerView map[string]map[Day]map[Hour]string

// PatientView maps patient -> day -> hour -> caretaker.
type PatientView map[string]map[Day]map[Hour]string

// Schedule is an ordered set of assignments. Both views are derived from the
// same assignments so they cannot drift apart.
type Schedule struct {
	assignments []Assignment
}

// NewSchedule returns a schedule holding a copy of as. Missing professions are
// recovered from the caretaker display name.
func NewSchedule(as ...Assignment) *Schedule {
	s := &Schedule{assignments: make([]Assignment, 0, len(as))}
	for _, a := range as {
		s.Add(a)
	}
	return s
}

// Add appends an assignment.
func (s *Schedule) Add(a Assignment) {
	if a.Profession == "" {
		if _, p, ok := ParseCaretakerName(a.Caretaker); ok {
			a.Profession = p
		}
	}
	s.assignments = append(s.assignments, a)
}

// Assignments returns a copy of the assignments in recorded order.
func (s *Schedule) Assignments() []Assignment {
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// Len returns the number of assignments.
func (s *Schedule) Len() int { return len(s.assignments) }

// Empty reports whether the schedule holds no assignment.
func (s *Schedule) Empty() bool { return len(s.assignments) == 0 }

// Caretakers returns caretaker names in order of first appearance.
func (s *Schedule) Caretakers() []string {
	return firstSeen(s.assignments, func(a Assignment) string { return a.Caretaker })
}

// Patients returns patient ids in order of first appearance.
func (s *Schedule) Patients() []string {
	return firstSeen(s.assignments, func(a Assignment) string { return a.Patient })
}

// CaretakerView derives caretaker -> day -> hour -> patient. When two
// assignments collide on a caretaker slot the later one is visible.
func (s *Schedule) CaretakerView() CaretakerView {
	v := make(CaretakerView)
	for _, a := range s.assignments {
		put(v, a.Caretaker, a.Day, a.Hour, a.Patient)
	}
	return v
}

// PatientView derives patient -> day -> hour -> caretaker. When two
// assignments collide on a patient slot the later one is visible.
func (s *Schedule) PatientView() PatientView {
	v := make(PatientView)
	for _, a := range s.assignments {
		put(v, a.Patient, a.Day, a.Hour, a.Caretaker)
	}
	return v
}

// FromCaretakerView rebuilds a schedule. Caretakers are visited by name, days
// in week order and hours ascending, so the result is deterministic.
func FromCaretakerView(v CaretakerView) *Schedule {
	s := &Schedule{}
	walk(v, func(c string, d Day, h Hour, p string) {
		s.Add(Assignment{Day: d, Hour: h, Caretaker: c, Patient: p})
	})
	return s
}

// FromPatientView rebuilds a schedule from the patient side.
func FromPatientView(v PatientView) *Schedule {
	s := &Schedule{}
	walk(v, func(p string, d Day, h Hour, c string) {
		s.Add(Assignment{Day: d, Hour: h, Caretaker: c, Patient: p})
	})
	return s
}

// ConflictKind names a broken scheduling rule.
type ConflictKind string

const (
	// PatientDoubleBooked: a patient has two caretakers at one slot.
	PatientDoubleBooked ConflictKind = "patient_double_booked"
	// PairRepeated: a caretaker meets the same patient twice in a day.
	PairRepeated ConflictKind = "pair_repeated"
	// CaretakerDoubleBooked: a caretaker has two patients at one slot.
	CaretakerDoubleBooked ConflictKind = "caretaker_double_booked"
)

// Conflict describes one rule violation found in a schedule.
type Conflict struct {
	Kind      ConflictKind
	Day       Day
	Hour      Hour
	Caretaker string
	Patient   string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s/%s at %s", c.Kind, c.Caretaker, c.Patient, Slot{c.Day, c.Hour})
}

// Conflicts lists every assignment that collides with an earlier one.
func (s *Schedule) Conflicts() []Conflict {
	type pslot struct {
		p string
		Slot
	}
	type cslot struct {
		c string
		Slot
	}
	type pairDay struct {
		c, p string
		d    Day
	}
	patients := make(map[pslot]bool)
	caretakers := make(map[cslot]bool)
	pairs := make(map[pairDay]bool)
	var out []Conflict
	for _, a := range s.assignments {
		mk := func(k ConflictKind) Conflict {
			return Conflict{Kind: k, Day: a.Day, Hour: a.Hour, Caretaker: a.Caretaker, Patient: a.Patient}
		}
		ps := pslot{a.Patient, a.Slot()}
		if patients[ps] {
			out = append(out, mk(PatientDoubleBooked))
		}
		patients[ps] = true
		cs := cslot{a.Caretaker, a.Slot()}
		if caretakers[cs] {
			out = append(out, mk(CaretakerDoubleBooked))
		}
		caretakers[cs] = true
		pd := pairDay{a.Caretaker, a.Patient, a.Day}
		if pairs[pd] {
			out = append(out, mk(PairRepeated))
		}
		pairs[pd] = true
	}
	return out
}

func put(v map[string]map[Day]map[Hour]string, key string, d Day, h Hour, val string) {
	days, ok := v[key]
	if !ok {
		days = make(map[Day]map[Hour]string)
		v[key] = days
	}
	hours, ok := days[d]
	if !ok {
		hours = make(map[Hour]string)
		days[d] = hours
	}
	hours[h] = val
}

func walk(v map[string]map[Day]map[Hour]string, fn func(string, Day, Hour, string)) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, d := range Days {
			hours := v[k][d]
			hs := make([]int, 0, len(hours))
			for h := range hours {
				hs = append(hs, int(h))
			}
			sort.Ints(hs)
			for _, h := range hs {
				if val := hours[Hour(h)]; val != "" {
					fn(k, d, Hour(h), val)
				}
			}
		}
	}
}

func firstSeen(as []Assignment, key func(Assignment) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range as {
		k := key(a)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
