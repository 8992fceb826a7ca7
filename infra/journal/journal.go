// Package journal keeps one record per optimization run and answers
// queries over them.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/caresched/core/optimizer"
)

const (
	TypeNone   = "none"
	TypeJSONL  = "jsonl"
	TypeSQLite = "sqlite"
)

// Record captures one optimization run.
type Record struct {
	Timestamp         time.Time     `json:"timestamp"`
	RunID             string        `json:"run_id"`
	Mode              string        `json:"mode"`
	Status            string        `json:"status"`
	Outcome           string        `json:"outcome"`
	Fallback          bool          `json:"fallback"`
	Variables         int           `json:"variables"`
	Constraints       int           `json:"constraints"`
	InputAssignments  int           `json:"input_assignments"`
	OutputAssignments int           `json:"output_assignments"`
	Objective         int64         `json:"objective"`
	Nodes             int64         `json:"nodes"`
	Duration          time.Duration `json:"duration_ns"`
}

// FromReport converts an engine report.
func FromReport(r optimizer.Report) Record {
	return Record{
		Timestamp:         r.Started,
		RunID:             r.RunID,
		Mode:              string(r.Mode),
		Status:            r.StatusLabel(),
		Outcome:           string(r.Outcome),
		Fallback:          r.Fallback(),
		Variables:         r.Variables,
		Constraints:       r.Constraints,
		InputAssignments:  r.InputAssignments,
		OutputAssignments: r.OutputAssignments,
		Objective:         r.Objective,
		Nodes:             r.Nodes,
		Duration:          r.Duration,
	}
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start    time.Time
	End      time.Time
	Status   string
	Mode     string
	Fallback *bool
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Mode != "" && r.Mode != q.Mode {
		return false
	}
	return q.Fallback == nil || *q.Fallback == r.Fallback
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects the store.
type Config struct {
	Type       string `json:"type" validate:"omitempty,oneof=none jsonl sqlite"`
	Path       string `json:"path" validate:"required_unless=Type none"`
	MaxSizeMB  int    `json:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `json:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days" validate:"gte=0"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = TypeNone
	}
	if c.Type == TypeJSONL {
		if c.MaxSizeMB == 0 {
			c.MaxSizeMB = 10
		}
		if c.MaxBackups == 0 {
			c.MaxBackups = 5
		}
		if c.MaxAgeDays == 0 {
			c.MaxAgeDays = 30
		}
	}
}

// New opens the configured store.
func New(cfg Config) (Store, error) {
	cfg.SetDefaults()
	switch cfg.Type {
	case TypeNone:
		return Nop{}, nil
	case TypeJSONL:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case TypeSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("journal: unknown type %q", cfg.Type)
	}
}

// Nop discards records.
type Nop struct{}

func (Nop) Append(context.Context, Record) error           { return nil }
func (Nop) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (Nop) Close() error                                   { return nil }
