package optimizer

import (
	"fmt"
	"strings"
)

// Mode selects the objective. The hard constraints are the same in every
// mode.
type Mode string

const (
	// Minimal keeps the fewest assignments that still cover every
	// caretaker-day and patient-day of the input.
	Minimal Mode = "minimal"
	// CoverageMax fills as many slots as the hard constraints allow.
	CoverageMax Mode = "coverage-max"
)

// DefaultMode is used when no mode is given.
const DefaultMode = Minimal

// ParseMode accepts a mode name, case-insensitively. An empty name yields
// DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DefaultMode, nil
	case Minimal, CoverageMax:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == Minimal || m == CoverageMax }
