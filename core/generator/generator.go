// Package generator builds a random but constraint-respecting initial
// schedule from caretaker availability.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/caresched/core/logger"
	"github.com/kilianp07/caresched/core/model"
	"github.com/kilianp07/caresched/internal/retry"
)

const (
	DefaultCaretakers   = 30
	DefaultPatients     = 80
	DefaultSlotAttempts = 100
	DefaultNameAttempts = 1000

	minWorkingDays  = 3
	maxWorkingDays  = 6
	minBlockLength  = 4
	maxBlockLength  = 8
	patientIDFormat = "P%03d"
)

// Config holds generator parameters.
type Config struct {
	Caretakers int
	Patients   int
	// Seed feeds the random source. Zero picks a time based seed.
	Seed int64
	// SlotAttempts bounds the patient draws for one caretaker slot.
	SlotAttempts int
	// NameAttempts bounds the draws for one unique caretaker name.
	NameAttempts int
	Names        []string
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Caretakers == 0 {
		c.Caretakers = DefaultCaretakers
	}
	if c.Patients == 0 {
		c.Patients = DefaultPatients
	}
	if c.SlotAttempts == 0 {
		c.SlotAttempts = DefaultSlotAttempts
	}
	if c.NameAttempts == 0 {
		c.NameAttempts = DefaultNameAttempts
	}
	if len(c.Names) == 0 {
		c.Names = DefaultNames
	}
}

// Stats counts the outcome of AssignPatients.
type Stats struct {
	Filled   int
	Unfilled int
}

// Generator produces caretakers and assigns patients to their slots. It is
// not safe for concurrent use.
type Generator struct {
	cfg        Config
	rand       *rand.Rand
	log        logger.Logger
	caretakers []*model.Caretaker
	patients   []*model.Patient
}

var errIncompatible = errors.New("patient already sees this profession today")

// New validates cfg and returns a Generator.
func New(cfg Config, log logger.Logger) (*Generator, error) {
	cfg.SetDefaults()
	if cfg.SlotAttempts < 1 {
		return nil, &ConfigurationError{Field: "slot_attempts", Reason: fmt.Sprintf("must be positive, got %d", cfg.SlotAttempts)}
	}
	if cfg.NameAttempts < 1 {
		return nil, &ConfigurationError{Field: "name_attempts", Reason: fmt.Sprintf("must be positive, got %d", cfg.NameAttempts)}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{cfg: cfg, rand: rand.New(rand.NewSource(seed)), log: logger.OrNop(log)}, nil
}

// Caretakers returns the caretakers of the last GenerateCaretakers call.
func (g *Generator) Caretakers() []*model.Caretaker { return g.caretakers }

// Patients returns the patients created by the last AssignPatients call.
func (g *Generator) Patients() []*model.Patient { return g.patients }

// GenerateCaretakers creates count caretakers with unique names. Professions
// are handed out round-robin over professions. Asking for more caretakers
// than there are distinct names is a ConfigurationError, and so is running
// out of name draws.
func (g *Generator) GenerateCaretakers(count int, professions []model.Profession) ([]*model.Caretaker, error) {
	if count < 0 {
		return nil, &ConfigurationError{Field: "caretakers", Reason: fmt.Sprintf("must not be negative, got %d", count)}
	}
	if len(professions) == 0 {
		return nil, &ConfigurationError{Field: "professions", Reason: "at least one profession is required"}
	}
	if pool := uniqueCount(g.cfg.Names); count > pool {
		return nil, &ConfigurationError{Field: "caretakers", Reason: fmt.Sprintf("%d requested but the name pool holds %d names", count, pool)}
	}

	used := make(map[string]bool, count)
	out := make([]*model.Caretaker, 0, count)
	for i := 0; i < count; i++ {
		var name string
		err := retry.Attempts(g.cfg.NameAttempts, func(int) error {
			name = g.cfg.Names[g.rand.Intn(len(g.cfg.Names))]
			if used[name] {
				return errors.New("name taken")
			}
			return nil
		})
		if err != nil {
			return nil, &ConfigurationError{Field: "name_attempts", Reason: fmt.Sprintf("no unused name after %d draws", g.cfg.NameAttempts)}
		}
		used[name] = true
		out = append(out, &model.Caretaker{
			GivenName:    name,
			Profession:   professions[i%len(professions)],
			WorkingDays:  g.randomDays(),
			WorkingHours: g.randomBlock(),
		})
	}
	g.caretakers = out
	g.log.Debugf("generated %d caretakers", len(out))
	return out, nil
}

// AssignPatients fills every working slot of every caretaker on a best
// effort basis. New patients are created until target exist; after that a
// random existing patient is drawn. A patient is only accepted if nobody of
// the caretaker's profession sees them that day. Slots still empty after
// the retry bound stay empty.
func (g *Generator) AssignPatients(target int) (Stats, error) {
	if target < 1 {
		return Stats{}, &ConfigurationError{Field: "patients", Reason: fmt.Sprintf("must be positive, got %d", target)}
	}
	g.patients = nil
	var st Stats
	for _, ct := range g.caretakers {
		ct.Schedule = nil
		for _, day := range ct.WorkingDays {
			for _, hour := range ct.WorkingHours {
				err := retry.Attempts(g.cfg.SlotAttempts, func(int) error {
					p := g.pickPatient(target)
					if p.HasProfessionOn(day, ct.Profession) {
						return errIncompatible
					}
					p.Add(model.Assignment{Day: day, Hour: hour, Caretaker: ct.Name(), Profession: ct.Profession})
					ct.Book(day, hour, p.ID)
					return nil
				})
				if err != nil {
					st.Unfilled++
					continue
				}
				st.Filled++
			}
		}
	}
	g.log.Debugw("patients assigned", map[string]any{
		"patients": len(g.patients),
		"filled":   st.Filled,
		"unfilled": st.Unfilled,
	})
	return st, nil
}

// Schedule collects the patients' assignments, patient by patient in
// creation order.
func (g *Generator) Schedule() *model.Schedule {
	s := model.NewSchedule()
	for _, p := range g.patients {
		for _, a := range p.Assignments {
			s.Add(a)
		}
	}
	return s
}

func (g *Generator) pickPatient(target int) *model.Patient {
	if len(g.patients) < target {
		p := &model.Patient{ID: fmt.Sprintf(patientIDFormat, len(g.patients)+1)}
		g.patients = append(g.patients, p)
		return p
	}
	return g.patients[g.rand.Intn(len(g.patients))]
}

func (g *Generator) randomDays() []model.Day {
	n := g.randomInt(minWorkingDays, maxWorkingDays)
	perm := g.rand.Perm(len(model.Days))
	days := make([]model.Day, n)
	for i := range days {
		days[i] = model.Days[perm[i]]
	}
	return days
}

func (g *Generator) randomBlock() []model.Hour {
	length := g.randomInt(minBlockLength, maxBlockLength)
	start := g.randomInt(int(model.MinHour), int(model.MaxHour)-length+1)
	hours := make([]model.Hour, length)
	for i := range hours {
		hours[i] = model.Hour(start + i)
	}
	return hours
}

// randomInt returns a uniform integer in [lo, hi].
func (g *Generator) randomInt(lo, hi int) int {
	return lo + g.rand.Intn(hi-lo+1)
}
