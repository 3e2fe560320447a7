package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(0)

	_, ok := mc.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, mc.Set(ctx, "a", []byte("one"), time.Minute))
	got, ok := mc.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "one", string(got))

	require.NoError(t, mc.Set(ctx, "a", []byte("two!"), time.Minute))
	got, _ = mc.Get(ctx, "a")
	assert.Equal(t, "two!", string(got))

	stats := mc.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, int64(len("a")+len("two!")), stats.Size)

	require.NoError(t, mc.Delete(ctx, "a"))
	_, ok = mc.Get(ctx, "a")
	assert.False(t, ok)
	assert.Zero(t, mc.Stats().Size)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(0)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, mc.Set(ctx, "default", []byte("y"), 0))

	now = now.Add(2 * time.Second)
	_, ok := mc.Get(ctx, "short")
	assert.False(t, ok)
	_, ok = mc.Get(ctx, "default")
	assert.True(t, ok)

	now = now.Add(DefaultTTL)
	_, ok = mc.Get(ctx, "default")
	assert.False(t, ok)
	assert.Equal(t, int64(2), mc.Stats().Evictions)
	assert.Zero(t, mc.Stats().Size)
}

func TestMemoryCache_SizeBound(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(10)

	require.NoError(t, mc.Set(ctx, "a", []byte("1234"), time.Minute)) // 5 bytes
	require.NoError(t, mc.Set(ctx, "b", []byte("1234"), time.Minute)) // 10 bytes
	require.NoError(t, mc.Set(ctx, "c", []byte("1234"), time.Minute))

	stats := mc.Stats()
	assert.LessOrEqual(t, stats.Size, int64(10))
	assert.Equal(t, int64(1), stats.Evictions)
	_, ok := mc.Get(ctx, "c")
	assert.True(t, ok, "newest entry is kept")

	require.NoError(t, mc.Set(ctx, "huge", make([]byte, 64), time.Minute))
	_, ok = mc.Get(ctx, "huge")
	assert.False(t, ok, "oversized values are skipped")

	require.NoError(t, mc.Clear(ctx))
	assert.Zero(t, mc.Stats().Size)
}
