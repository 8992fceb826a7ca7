package generator

import "fmt"

// ConfigurationError reports generator settings that can never succeed.
// It is fatal: the generator stops instead of retrying.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("generator configuration: %s: %s", e.Field, e.Reason)
}
