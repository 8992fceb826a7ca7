package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewsAgree(t *testing.T) {
	s := NewSchedule(
		Assignment{Day: Monday, Hour: 8, Caretaker: "Alice (nurse)", Patient: "P001"},
		Assignment{Day: Monday, Hour: 9, Caretaker: "Bob (doctor)", Patient: "P001"},
		Assignment{Day: Friday, Hour: 17, Caretaker: "Alice (nurse)", Patient: "P002"},
	)

	cv := s.CaretakerView()
	pv := s.PatientView()
	for c, days := range cv {
		for d, hours := range days {
			for h, p := range hours {
				assert.Equal(t, c, pv[p][d][h])
			}
		}
	}
	assert.ElementsMatch(t, s.Assignments(), FromCaretakerView(cv).Assignments())
	assert.Len(t, FromPatientView(pv).Assignments(), 3)
}

func TestAddRecoversProfession(t *testing.T) {
	s := NewSchedule(Assignment{Day: Sunday, Hour: 10, Caretaker: "Nina (care_assistant)", Patient: "P003"})
	assert.Equal(t, CareAssistant, s.Assignments()[0].Profession)

	s = NewSchedule(Assignment{Day: Sunday, Hour: 10, Caretaker: "A", Patient: "P003"})
	assert.Equal(t, Profession(""), s.Assignments()[0].Profession)
}

func TestFromCaretakerViewDeterministic(t *testing.T) {
	v := CaretakerView{
		"B": {Tuesday: {9: "P2"}, Sunday: {12: "P1", 8: "P3"}},
		"A": {Monday: {8: "P1"}},
	}
	got := FromCaretakerView(v).Assignments()
	require.Len(t, got, 4)
	want := []Assignment{
		{Day: Monday, Hour: 8, Caretaker: "A", Patient: "P1"},
		{Day: Sunday, Hour: 8, Caretaker: "B", Patient: "P3"},
		{Day: Sunday, Hour: 12, Caretaker: "B", Patient: "P1"},
		{Day: Tuesday, Hour: 9, Caretaker: "B", Patient: "P2"},
	}
	assert.Equal(t, want, got)
}

func TestConflicts(t *testing.T) {
	s := NewSchedule(
		Assignment{Day: Monday, Hour: 8, Caretaker: "A", Patient: "P1"},
		Assignment{Day: Monday, Hour: 9, Caretaker: "A", Patient: "P1"},
		Assignment{Day: Monday, Hour: 8, Caretaker: "B", Patient: "P1"},
		Assignment{Day: Monday, Hour: 8, Caretaker: "B", Patient: "P2"},
	)
	kinds := map[ConflictKind]int{}
	for _, c := range s.Conflicts() {
		kinds[c.Kind]++
	}
	assert.Equal(t, map[ConflictKind]int{PairRepeated: 1, PatientDoubleBooked: 1, CaretakerDoubleBooked: 1}, kinds)
}

func TestViewJSON(t *testing.T) {
	s := NewSchedule(Assignment{Day: Thursday, Hour: 11, Caretaker: "A", Patient: "P1"})
	b, err := json.Marshal(s.CaretakerView())
	require.NoError(t, err)
	assert.JSONEq(t, `{"A":{"Thursday":{"11":"P1"}}}`, string(b))

	var back CaretakerView
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s.CaretakerView(), back)
}

func TestParseCaretakerName(t *testing.T) {
	cases := []struct {
		in    string
		given string
		prof  Profession
		ok    bool
	}{
		{"Alice (nurse)", "Alice", Nurse, true},
		{"Mary Ann (doctor)", "Mary Ann", Doctor, true},
		{"Bob (plumber)", "", "", false},
		{"Carl", "", "", false},
		{" (nurse)", "", "", false},
	}
	for _, c := range cases {
		g, p, ok := ParseCaretakerName(c.in)
		if g != c.given || p != c.prof || ok != c.ok {
			t.Fatalf("%q: got %q %q %v", c.in, g, p, ok)
		}
	}
}

func TestParseDay(t *testing.T) {
	for _, d := range Days {
		got, ok := ParseDay(d.String())
		if !ok || got != d {
			t.Fatalf("round trip %v", d)
		}
	}
	if _, ok := ParseDay("Saturday"); ok {
		t.Fatalf("saturday must not parse")
	}
	if len(Hours()) != 10 || SlotsPerWeek != 60 {
		t.Fatalf("unexpected grid size")
	}
}
