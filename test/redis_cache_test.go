//go:build integration

package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/caresched/app"
	"github.com/kilianp07/caresched/config"
	"github.com/kilianp07/caresched/core/optimizer"
	"github.com/kilianp07/caresched/infra/cache"
	"github.com/kilianp07/caresched/infra/logger"
	"github.com/kilianp07/caresched/test/util"
)

func TestRedisCacheServesRepeatedRuns(t *testing.T) {
	ctx := context.Background()
	addr, cleanup, err := util.StartRedis(ctx)
	require.NoError(t, err)
	defer cleanup()

	cfg := config.Default()
	cfg.Cache = cache.Config{Type: cache.TypeRedis, Address: addr, TTL: time.Minute}
	in := optimizer.Bare{
		"Alice (nurse)": {"Monday": {"8": "P1", "9": "P1"}},
	}

	first, err := app.New(cfg, app.Deps{Logger: logger.NopLogger{}})
	require.NoError(t, err)
	r1, err := first.Optimize(ctx, in, optimizer.Minimal, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, r1.Cached)
	require.NoError(t, first.Close())

	// A second service instance shares the Redis entries.
	second, err := app.New(cfg, app.Deps{Logger: logger.NopLogger{}})
	require.NoError(t, err)
	defer second.Close()
	r2, err := second.Optimize(ctx, in, optimizer.Minimal, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, r2.Cached)
	assert.JSONEq(t, string(r1.Body), string(r2.Body))

	r3, err := second.Optimize(ctx, in, optimizer.Minimal, 6*time.Second)
	require.NoError(t, err)
	assert.False(t, r3.Cached, "budget is part of the key")
}
