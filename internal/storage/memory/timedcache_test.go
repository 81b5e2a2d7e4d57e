package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tokengate/internal/storage"
)

func newTestCache(t *testing.T) (*TimedCache, *time.Time) {
	t.Helper()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	cache := New(-1, nil)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v", 60))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestGetAbsentKey(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	got, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLazyExpiry(t *testing.T) {
	ctx := context.Background()
	cache, now := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v", 10))

	*now = now.Add(11 * time.Second)

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, cache.Len(), "expired entry should be removed on read")
}

func TestZeroTTLDeletes(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v", 60))
	require.NoError(t, cache.Set(ctx, "k", "v2", 0))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetTimeoutSentinels(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	ttl, err := cache.GetTimeout(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, storage.NotValueExpire, ttl)

	require.NoError(t, cache.Set(ctx, "forever", "v", storage.NeverExpire))
	ttl, err = cache.GetTimeout(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, storage.NeverExpire, ttl)
}

func TestGetTimeoutCountsDown(t *testing.T) {
	ctx := context.Background()
	cache, now := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v", 60))

	*now = now.Add(20 * time.Second)

	ttl, err := cache.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(40), ttl)
}

func TestUpdateKeepsExpiry(t *testing.T) {
	ctx := context.Background()
	cache, now := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v", 60))
	*now = now.Add(10 * time.Second)
	require.NoError(t, cache.Update(ctx, "k", "v2"))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	ttl, err := cache.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(50), ttl)
}

func TestUpdateAbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	require.NoError(t, cache.Update(ctx, "missing", "v"))

	got, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateTimeout(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v", 60))
	require.NoError(t, cache.UpdateTimeout(ctx, "k", 600))

	ttl, err := cache.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(600), ttl)

	require.NoError(t, cache.UpdateTimeout(ctx, "k", storage.NeverExpire))
	ttl, err = cache.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, storage.NeverExpire, ttl)
}

func TestSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	cache, now := newTestCache(t)

	ok, err := cache.SetIfAbsent(ctx, "k", "v", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetIfAbsent(ctx, "k", "v2", 10)
	require.NoError(t, err)
	assert.False(t, ok, "live key must not be overwritten")

	*now = now.Add(11 * time.Second)

	ok, err = cache.SetIfAbsent(ctx, "k", "v3", 10)
	require.NoError(t, err)
	assert.True(t, ok, "expired key counts as absent")

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v3", got)
}

func TestSweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	cache, now := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "short", "v", 10))
	require.NoError(t, cache.Set(ctx, "long", "v", 1000))
	require.NoError(t, cache.Set(ctx, "forever", "v", storage.NeverExpire))

	*now = now.Add(30 * time.Second)
	cache.Sweep()

	assert.Equal(t, 2, cache.Len())

	got, err := cache.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	got, err = cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestSearchKeys(t *testing.T) {
	ctx := context.Background()
	cache, now := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "app:token:a", "1", 60))
	require.NoError(t, cache.Set(ctx, "app:token:b", "1", 60))
	require.NoError(t, cache.Set(ctx, "app:token:c", "1", 5))
	require.NoError(t, cache.Set(ctx, "app:session:a", "1", 60))

	keys, err := cache.SearchKeys(ctx, "app:token:", "", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:token:a", "app:token:b", "app:token:c"}, keys)

	// Expired keys drop out of enumeration without being read first.
	*now = now.Add(6 * time.Second)
	keys, err = cache.SearchKeys(ctx, "app:token:", "", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:token:a", "app:token:b"}, keys)

	keys, err = cache.SearchKeys(ctx, "app:token:", "", 0, -1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:token:b", "app:token:a"}, keys)

	keys, err = cache.SearchKeys(ctx, "app:token:", "", 1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:token:b"}, keys)
}

func TestSweepLoopLifecycle(t *testing.T) {
	cache := New(1, nil)
	require.NoError(t, cache.Init())
	require.NoError(t, cache.Destroy())
	// Destroy twice must not panic.
	require.NoError(t, cache.Destroy())
}
