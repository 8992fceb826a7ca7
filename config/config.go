// Package config loads the service configuration from a yaml or json file
// with CARE_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/caresched/core/metrics"
	"github.com/kilianp07/caresched/infra/cache"
	"github.com/kilianp07/caresched/infra/journal"
	"github.com/kilianp07/caresched/infra/monitoring"
	"github.com/kilianp07/caresched/infra/mqtt"
	"github.com/kilianp07/caresched/internal/validate"
)

// EnvPrefix marks environment overrides: CARE_SERVER__ADDRESS sets
// server.address.
const EnvPrefix = "CARE_"

type Config struct {
	Generator GeneratorConfig `json:"generator"`
	Optimizer OptimizerConfig `json:"optimizer"`
	Logging   LoggingConfig   `json:"logging"`
	Journal   journal.Config  `json:"journal"`
	Metrics   metrics.Config  `json:"metrics"`
	Server    ServerConfig    `json:"server"`
	Cache     cache.Config    `json:"cache"`
	// Sentry error reporting is enabled when a DSN is set.
	Monitoring monitoring.Config `json:"monitoring"`
	// MQTT publication is enabled when a broker is set.
	MQTT mqtt.Config `json:"mqtt" validate:"-"`
}

// Load reads path, applies environment overrides, fills defaults and
// validates. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills zero values of every section.
func (c *Config) SetDefaults() {
	c.Generator.SetDefaults()
	c.Optimizer.SetDefaults()
	c.Logging.SetDefaults()
	c.Journal.SetDefaults()
	c.Server.SetDefaults()
	c.Cache.SetDefaults()
	if c.MQTTEnabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MQTTEnabled() {
		if err := validate.Struct(c.MQTT); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// MQTTEnabled reports whether schedules are published.
func (c *Config) MQTTEnabled() bool { return c.MQTT.Broker != "" }

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address      string        `json:"address" validate:"required"`
	ReadTimeout  time.Duration `json:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `json:"write_timeout" validate:"gte=0"`
	// MaxBodyBytes caps POSTed schedules.
	MaxBodyBytes int64 `json:"max_body_bytes" validate:"gte=0"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8000"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		// must outlast the solver budget
		c.WriteTimeout = 2 * time.Minute
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 8 << 20
	}
}
