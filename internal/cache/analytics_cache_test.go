package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

func setupCache(t *testing.T, ttl time.Duration) (*AnalyticsCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewAnalyticsCache(client, ttl), mr
}

func TestAnalyticsCache_SetGet(t *testing.T) {
	cache, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	var got snapshot
	hit, err := cache.Get(ctx, "admin-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "admin-1", snapshot{Total: 10, Completed: 4, Rate: 40}))

	hit, err = cache.Get(ctx, "admin-1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, snapshot{Total: 10, Completed: 4, Rate: 40}, got)

	hit, err = cache.Get(ctx, "admin-2", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAnalyticsCache_Expiry(t *testing.T) {
	cache, mr := setupCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "admin-1", snapshot{Total: 1}))
	mr.FastForward(31 * time.Second)

	var got snapshot
	hit, err := cache.Get(ctx, "admin-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAnalyticsCache_Invalidate(t *testing.T) {
	cache, mr := setupCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "admin-1", snapshot{Total: 1}))
	require.NoError(t, cache.Set(ctx, "admin-2", snapshot{Total: 2}))
	require.NoError(t, cache.Invalidate(ctx, "admin-1"))

	assert.False(t, mr.Exists("analytics:tasks:admin-1"))
	assert.True(t, mr.Exists("analytics:tasks:admin-2"))
}

func TestAnalyticsCache_CorruptEntryIsMiss(t *testing.T) {
	cache, mr := setupCache(t, time.Minute)
	require.NoError(t, mr.Set("analytics:tasks:admin-1", "not-json"))

	var got snapshot
	hit, err := cache.Get(context.Background(), "admin-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAnalyticsCache_Disabled(t *testing.T) {
	ctx := context.Background()
	var got snapshot

	for _, cache := range []*AnalyticsCache{nil, NewAnalyticsCache(nil, time.Minute)} {
		assert.False(t, cache.Enabled())
		require.NoError(t, cache.Set(ctx, "admin-1", snapshot{Total: 1}))
		hit, err := cache.Get(ctx, "admin-1", &got)
		require.NoError(t, err)
		assert.False(t, hit)
		require.NoError(t, cache.Invalidate(ctx, "admin-1"))
	}

	zeroTTL, _ := setupCache(t, 0)
	assert.False(t, zeroTTL.Enabled())
}
