package config

import (
	"time"

	"github.com/kilianp07/caresched/core/factory"
	"github.com/kilianp07/caresched/core/generator"
	"github.com/kilianp07/caresched/core/optimizer"
	"github.com/kilianp07/caresched/infra/solver/bnb"
)

// GeneratorConfig configures the faker pipeline.
type GeneratorConfig struct {
	Caretakers   int      `json:"caretakers" validate:"gte=1"`
	Patients     int      `json:"patients" validate:"gte=1"`
	Seed         int64    `json:"seed"`
	SlotAttempts int      `json:"slot_attempts" validate:"gte=1"`
	NameAttempts int      `json:"name_attempts" validate:"gte=1"`
	Names        []string `json:"names" validate:"omitempty,dive,required"`
}

func (c *GeneratorConfig) SetDefaults() {
	g := c.Generator()
	g.SetDefaults()
	c.Caretakers, c.Patients = g.Caretakers, g.Patients
	c.SlotAttempts, c.NameAttempts = g.SlotAttempts, g.NameAttempts
}

// Generator converts the section into generator settings.
func (c GeneratorConfig) Generator() generator.Config {
	return generator.Config{
		Caretakers:   c.Caretakers,
		Patients:     c.Patients,
		Seed:         c.Seed,
		SlotAttempts: c.SlotAttempts,
		NameAttempts: c.NameAttempts,
		Names:        c.Names,
	}
}

// OptimizerConfig selects the default mode, budget and solver backend.
type OptimizerConfig struct {
	Mode              string `json:"mode" validate:"oneof=minimal coverage-max"`
	TimeBudgetSeconds int    `json:"time_budget_seconds" validate:"gte=1"`
	// MaxBudgetSeconds caps budgets asked for by callers.
	MaxBudgetSeconds int                  `json:"max_budget_seconds" validate:"gtefield=TimeBudgetSeconds"`
	Solver           factory.ModuleConfig `json:"solver"`
}

// DefaultMaxBudgetSeconds keeps a solve inside the default write timeout.
const DefaultMaxBudgetSeconds = 90

func (c *OptimizerConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = string(optimizer.DefaultMode)
	}
	if c.TimeBudgetSeconds == 0 {
		c.TimeBudgetSeconds = int(optimizer.DefaultBudget / time.Second)
	}
	if c.MaxBudgetSeconds == 0 {
		c.MaxBudgetSeconds = max(DefaultMaxBudgetSeconds, c.TimeBudgetSeconds)
	}
	if c.Solver.Type == "" {
		c.Solver.Type = bnb.Name
	}
}

// Budget is the solve budget as a duration.
func (c OptimizerConfig) Budget() time.Duration {
	return time.Duration(c.TimeBudgetSeconds) * time.Second
}

// MaxBudget is the largest budget a caller may ask for.
func (c OptimizerConfig) MaxBudget() time.Duration {
	return time.Duration(c.MaxBudgetSeconds) * time.Second
}
