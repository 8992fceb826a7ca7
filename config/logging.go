package config

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `json:"level" validate:"oneof=debug info warn error"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}
