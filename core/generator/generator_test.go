package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/caresched/core/model"
)

func newTestGenerator(t *testing.T, cfg Config) *Generator {
	t.Helper()
	g, err := New(cfg, nil)
	require.NoError(t, err)
	return g
}

func TestGenerateCaretakersAvailability(t *testing.T) {
	g := newTestGenerator(t, Config{Seed: 7})
	cts, err := g.GenerateCaretakers(30, model.Professions)
	require.NoError(t, err)
	require.Len(t, cts, 30)

	names := map[string]bool{}
	for i, c := range cts {
		assert.False(t, names[c.GivenName], "duplicate name %s", c.GivenName)
		names[c.GivenName] = true
		assert.Equal(t, model.Professions[i%len(model.Professions)], c.Profession)

		assert.GreaterOrEqual(t, len(c.WorkingDays), minWorkingDays)
		assert.LessOrEqual(t, len(c.WorkingDays), maxWorkingDays)
		days := map[model.Day]bool{}
		for _, d := range c.WorkingDays {
			assert.True(t, d.Valid())
			assert.False(t, days[d])
			days[d] = true
		}

		require.GreaterOrEqual(t, len(c.WorkingHours), minBlockLength)
		require.LessOrEqual(t, len(c.WorkingHours), maxBlockLength)
		for j, h := range c.WorkingHours {
			assert.True(t, h.Valid(), "hour %d out of range", h)
			if j > 0 {
				assert.Equal(t, c.WorkingHours[j-1]+1, h)
			}
		}
	}
}

func TestGenerateCaretakersPoolTooSmall(t *testing.T) {
	g := newTestGenerator(t, Config{Seed: 1, Names: []string{"Ann", "Bo", "Ann"}})
	_, err := g.GenerateCaretakers(3, model.Professions)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "caretakers", cfgErr.Field)

	cts, err := g.GenerateCaretakers(2, model.Professions)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ann", "Bo"}, []string{cts[0].GivenName, cts[1].GivenName})
}

func TestGenerateCaretakersNameDrawsExhausted(t *testing.T) {
	g := newTestGenerator(t, Config{Seed: 1, NameAttempts: 1})
	_, err := g.GenerateCaretakers(len(DefaultNames), model.Professions)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "name_attempts" {
		t.Fatalf("field = %q, want name_attempts", cfgErr.Field)
	}
	if g.Caretakers() != nil {
		t.Errorf("caretakers kept after a failed draw: %d", len(g.Caretakers()))
	}
}

func TestNewRejectsBadBounds(t *testing.T) {
	cases := map[string]Config{
		"slot_attempts": {SlotAttempts: -1},
		"name_attempts": {NameAttempts: -1},
	}
	for field, cfg := range cases {
		_, err := New(cfg, nil)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected ConfigurationError, got %v", field, err)
		}
		if cfgErr.Field != field {
			t.Errorf("field = %q, want %q", cfgErr.Field, field)
		}
	}
}

func TestAssignPatientsRespectsAvailability(t *testing.T) {
	g := newTestGenerator(t, Config{Seed: 42})
	cts, err := g.GenerateCaretakers(10, model.Professions)
	require.NoError(t, err)
	st, err := g.AssignPatients(20)
	require.NoError(t, err)

	slots := 0
	for _, c := range cts {
		slots += len(c.WorkingDays) * len(c.WorkingHours)
	}
	assert.Equal(t, slots, st.Filled+st.Unfilled)
	assert.LessOrEqual(t, len(g.Patients()), 20)

	byName := map[string]*model.Caretaker{}
	for _, c := range cts {
		byName[c.Name()] = c
	}
	s := g.Schedule()
	assert.Equal(t, st.Filled, s.Len())
	for _, a := range s.Assignments() {
		c := byName[a.Caretaker]
		require.NotNil(t, c)
		assert.True(t, c.WorksAt(a.Day, a.Hour))
	}
	for _, p := range g.Patients() {
		seen := map[model.Day]map[model.Profession]bool{}
		for _, a := range p.Assignments {
			if seen[a.Day] == nil {
				seen[a.Day] = map[model.Profession]bool{}
			}
			assert.False(t, seen[a.Day][a.Profession], "%s sees two %s on %s", p.ID, a.Profession, a.Day)
			seen[a.Day][a.Profession] = true
		}
	}
}

func TestAssignPatientsSinglePatientLeavesSlotsUnfilled(t *testing.T) {
	g := newTestGenerator(t, Config{Seed: 3, SlotAttempts: 5})
	cts, err := g.GenerateCaretakers(1, []model.Profession{model.Nurse})
	require.NoError(t, err)
	st, err := g.AssignPatients(1)
	require.NoError(t, err)

	assert.Equal(t, len(cts[0].WorkingDays), st.Filled)
	assert.Equal(t, len(cts[0].WorkingDays)*(len(cts[0].WorkingHours)-1), st.Unfilled)
}

func TestAssignPatientsRejectsZeroTarget(t *testing.T) {
	g := newTestGenerator(t, Config{Seed: 3})
	_, err := g.AssignPatients(0)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRunDeterministic(t *testing.T) {
	a, err := Run(Config{Seed: 99, Caretakers: 12, Patients: 30}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := Run(Config{Seed: 99, Caretakers: 12, Patients: 30}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if a.Stats != b.Stats {
		t.Fatalf("stats differ: %+v vs %+v", a.Stats, b.Stats)
	}
	assert.Equal(t, a.Schedule.Assignments(), b.Schedule.Assignments())
}

func TestRunNormalized(t *testing.T) {
	res, err := Run(Config{Seed: 5}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Caretakers, DefaultCaretakers)
	assert.Len(t, res.CaretakerView(), DefaultCaretakers)
	assert.Equal(t, res.Stats.Filled, res.Schedule.Len())
	assert.LessOrEqual(t, res.Substitutions, res.Stats.Filled)

	perProf := map[string]map[model.Profession]string{}
	for _, a := range res.Schedule.Assignments() {
		if perProf[a.Patient] == nil {
			perProf[a.Patient] = map[model.Profession]string{}
		}
		if prev, ok := perProf[a.Patient][a.Profession]; ok {
			assert.Equal(t, prev, a.Caretaker)
		}
		perProf[a.Patient][a.Profession] = a.Caretaker
	}

	view := res.Schedule.CaretakerView()
	for _, c := range res.Caretakers {
		assert.Equal(t, len(view[c.Name()]), len(c.Schedule))
	}
}

func TestRunPropagatesConfigurationError(t *testing.T) {
	_, err := Run(Config{Caretakers: len(DefaultNames) + 1}, nil)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
