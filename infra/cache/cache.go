// Package cache stores encoded optimization results keyed by their input.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/kilianp07/caresched/core/logger"
)

const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeRedis  = "redis"

	keyPrefix = "caresched:optimize:"
)

// Config selects and configures the cache.
type Config struct {
	Type       string        `json:"type" validate:"omitempty,oneof=none memory redis"`
	Address    string        `json:"address" validate:"required_if=Type redis"`
	Password   string        `json:"password"`
	DB         int           `json:"db" validate:"gte=0"`
	TTL        time.Duration `json:"ttl" validate:"gte=0"`
	MaxEntries int           `json:"max_entries" validate:"gte=0"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = TypeMemory
	}
	if c.TTL == 0 {
		c.TTL = 10 * time.Minute
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = 256
	}
}

// Cache is a byte-value store with expiry.
type Cache interface {
	// Get returns the value for key; ok is false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte) error
	Close() error
}

// Key derives the cache key of an optimization request.
func Key(mode string, budget time.Duration, input []byte) string {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(int64(budget), 10)))
	h.Write([]byte{0})
	h.Write(input)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the configured cache. A Redis cache that cannot be reached is
// an error.
func New(cfg Config, log logger.Logger) (Cache, error) {
	cfg.SetDefaults()
	switch cfg.Type {
	case TypeNone:
		return Nop{}, nil
	case TypeMemory:
		return NewMemory(cfg.TTL, cfg.MaxEntries), nil
	case TypeRedis:
		return NewRedis(cfg, log)
	default:
		return nil, fmt.Errorf("cache: unknown type %q", cfg.Type)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Close() error                                      { return nil }
