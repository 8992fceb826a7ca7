package metrics

import "github.com/kilianp07/caresched/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" validate:"dive"`
}
