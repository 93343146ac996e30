package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/types"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	m, err := NewManager(Config{Addr: mr.Addr(), DefaultTTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	return mr, m
}

func TestManager_SetAndGet(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 0))

	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestManager_GetMissing(t *testing.T) {
	_, m := setupTestRedis(t)

	_, err := m.Get(context.Background(), "absent")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSONRoundTrip(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	in := types.Script{Hook: "h", Problem: "p", Solution: "s", CTA: "c"}
	require.NoError(t, m.SetJSON(ctx, "script", in, 0))

	var out types.Script
	require.NoError(t, m.GetJSON(ctx, "script", &out))
	assert.Equal(t, in, out)
}

func TestManager_Delete(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	require.NoError(t, m.Delete(ctx, "k"))

	_, err := m.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_TTL(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Second))
	mr.FastForward(2 * time.Second)

	_, err := m.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_ClosedRejectsOperations(t *testing.T) {
	_, m := setupTestRedis(t)
	require.NoError(t, m.Close())

	_, err := m.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestScriptCache_RoundTrip(t *testing.T) {
	_, m := setupTestRedis(t)
	c := NewScriptCache(m, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, "script:abc")
	assert.False(t, ok)

	script := &types.Script{Hook: "h", Problem: "p", Solution: "s", CTA: "c"}
	c.Set(ctx, "script:abc", script)

	got, ok := c.Get(ctx, "script:abc")
	require.True(t, ok)
	assert.Equal(t, script, got)
}

func TestScriptCache_NilManagerIsNoop(t *testing.T) {
	c := NewScriptCache(nil, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "k", &types.Script{Hook: "h", Problem: "p", Solution: "s", CTA: "c"})
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "缓存禁用时静默放行")
}
