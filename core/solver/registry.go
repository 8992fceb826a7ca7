package solver

import (
	"errors"
	"fmt"

	"github.com/kilianp07/caresched/core/factory"
)

// ErrUnknownBackend is returned by NewBackend for an unregistered type.
var ErrUnknownBackend = errors.New("solver: unknown backend")

var backends = factory.NewRegistry[Backend]()

// RegisterBackend adds a backend factory identified by name.
func RegisterBackend(name string, f factory.Factory[Backend]) error {
	return backends.Register(name, f)
}

// NewBackend creates the backend described by cfg.
func NewBackend(cfg factory.ModuleConfig) (Backend, error) {
	b, err := backends.Create(cfg)
	if errors.Is(err, factory.ErrUnknownType) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownBackend, err)
	}
	return b, err
}
