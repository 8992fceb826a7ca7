package optimizer

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/caresched/core/model"
)

// Slots is one caretaker's schedule as it travels on the wire:
// day name -> hour -> patient id.
type Slots map[string]map[string]string

// Snapshot is a schedule handed to the engine, either Bare or *Enriched.
// Both convert to the same canonical model.Schedule before the model is
// built, and the result is converted back into the variant received.
type Snapshot interface {
	// Schedule returns the canonical assignments of the snapshot.
	Schedule() (*model.Schedule, error)
	// WithSchedule returns a snapshot of the same variant holding s.
	WithSchedule(s *model.Schedule) Snapshot
}

// Bare maps caretaker name -> Slots.
type Bare map[string]Slots

// Schedule implements Snapshot. Caretakers are read in name order.
func (b Bare) Schedule() (*model.Schedule, error) {
	names := make([]string, 0, len(b))
	for n := range b {
		names = append(names, n)
	}
	sort.Strings(names)
	s := model.NewSchedule()
	for _, n := range names {
		if err := appendSlots(s, n, b[n]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithSchedule implements Snapshot. Every caretaker of b is kept, with an
// empty schedule when nothing survived.
func (b Bare) WithSchedule(s *model.Schedule) Snapshot {
	view := s.CaretakerView()
	out := make(Bare, len(b))
	for n := range b {
		out[n] = toSlots(view[n])
	}
	for n, days := range view {
		if _, ok := out[n]; !ok {
			out[n] = toSlots(days)
		}
	}
	return out
}

// Record is one caretaker entry of the enriched form.
type Record struct {
	Name string
	// Fields holds every field of the entry except the schedule, verbatim.
	Fields   map[string]json.RawMessage
	Schedule Slots
}

// Enriched is an ordered list of caretaker records.
type Enriched struct {
	// Wrapped is set when the list arrived as {"caretakers": [...]}.
	Wrapped    bool
	Caretakers []Record
}

// Schedule implements Snapshot. Records are read in list order. Two records
// with the same name are a ModelBuildError, since the result could not be
// split back between them.
func (e *Enriched) Schedule() (*model.Schedule, error) {
	s := model.NewSchedule()
	seen := make(map[string]bool, len(e.Caretakers))
	for _, r := range e.Caretakers {
		if r.Name != "" {
			if seen[r.Name] {
				return nil, &ModelBuildError{Caretaker: r.Name, Reason: "duplicate caretaker record"}
			}
			seen[r.Name] = true
		}
		if err := appendSlots(s, r.Name, r.Schedule); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithSchedule implements Snapshot. Record order and metadata are kept and
// only the schedules are replaced.
func (e *Enriched) WithSchedule(s *model.Schedule) Snapshot {
	view := s.CaretakerView()
	out := &Enriched{Wrapped: e.Wrapped, Caretakers: make([]Record, len(e.Caretakers))}
	for i, r := range e.Caretakers {
		out.Caretakers[i] = Record{Name: r.Name, Fields: r.Fields, Schedule: toSlots(view[r.Name])}
	}
	return out
}

func appendSlots(s *model.Schedule, caretaker string, slots Slots) error {
	if strings.TrimSpace(caretaker) == "" && len(slots) > 0 {
		return &ModelBuildError{Reason: "caretaker without a name"}
	}
	dayNames := make([]string, 0, len(slots))
	for d := range slots {
		dayNames = append(dayNames, d)
	}
	sort.Slice(dayNames, func(i, j int) bool { return dayRank(dayNames[i]) < dayRank(dayNames[j]) })
	for _, dn := range dayNames {
		day, ok := model.ParseDay(dn)
		if !ok {
			return &ModelBuildError{Caretaker: caretaker, Reason: "unknown day " + strconv.Quote(dn)}
		}
		hours := slots[dn]
		byHour := make(map[model.Hour]string, len(hours))
		for hk, patient := range hours {
			if patient == "" {
				continue
			}
			h, err := strconv.Atoi(strings.TrimSpace(hk))
			if err != nil || !model.Hour(h).Valid() {
				return &ModelBuildError{Caretaker: caretaker, Patient: patient, Reason: "hour " + strconv.Quote(hk) + " outside 8..17"}
			}
			// "8" wins over other spellings of the same hour
			if _, dup := byHour[model.Hour(h)]; !dup || hk == strconv.Itoa(h) {
				byHour[model.Hour(h)] = patient
			}
		}
		for _, h := range model.Hours() {
			if p, ok := byHour[h]; ok {
				s.Add(model.Assignment{Day: day, Hour: h, Caretaker: caretaker, Patient: p})
			}
		}
	}
	return nil
}

func dayRank(name string) int {
	if d, ok := model.ParseDay(name); ok {
		return int(d)
	}
	return len(model.Days)
}

func toSlots(days map[model.Day]map[model.Hour]string) Slots {
	out := make(Slots, len(days))
	for d, hours := range days {
		hs := make(map[string]string, len(hours))
		for h, p := range hours {
			hs[strconv.Itoa(int(h))] = p
		}
		out[d.String()] = hs
	}
	return out
}

// Canonical wraps an in-process schedule. Unlike the wire forms it can carry
// any assignment set, including ones that put a caretaker with two patients
// at once.
type Canonical struct {
	S *model.Schedule
}

// Schedule implements Snapshot.
func (c Canonical) Schedule() (*model.Schedule, error) {
	if c.S == nil {
		return model.NewSchedule(), nil
	}
	return model.NewSchedule(c.S.Assignments()...), nil
}

// WithSchedule implements Snapshot.
func (c Canonical) WithSchedule(s *model.Schedule) Snapshot { return Canonical{S: s} }
