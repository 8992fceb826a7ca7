package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kilianp07/caresched/core/logger"
)

// Redis stores entries in a Redis server with the configured TTL.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(cfg Config, log logger.Logger) (*Redis, error) {
	cfg.SetDefaults()
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis %s: %w", cfg.Address, err)
	}
	logger.OrNop(log).Infof("redis cache connected at %s", cfg.Address)
	return &Redis{rdb: rdb, ttl: cfg.TTL}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) error {
	return r.rdb.Set(ctx, key, val, r.ttl).Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
