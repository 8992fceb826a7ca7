package optimizer

import (
	"errors"
	"fmt"
)

// ModelBuildError reports a structural problem found while building the
// model. The solver is never invoked when one is returned.
type ModelBuildError struct {
	Caretaker string
	Patient   string
	Reason    string
}

func (e *ModelBuildError) Error() string {
	switch {
	case e.Caretaker != "" && e.Patient != "":
		return fmt.Sprintf("model build: caretaker %q, patient %q: %s", e.Caretaker, e.Patient, e.Reason)
	case e.Caretaker != "":
		return fmt.Sprintf("model build: caretaker %q: %s", e.Caretaker, e.Reason)
	default:
		return "model build: " + e.Reason
	}
}

// ErrUnknownMode is returned for an objective mode the engine does not know.
var ErrUnknownMode = errors.New("optimizer: unknown mode")
