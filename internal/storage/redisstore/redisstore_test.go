package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tokengate/internal/storage"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return New(client), mr
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", "v", 60))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestGetAbsentKey(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", "v", 10))

	mr.FastForward(11 * time.Second)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestZeroTTLDeletes(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", "v", 60))
	require.NoError(t, store.Set(ctx, "k", "v2", 0))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNeverExpire(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", "v", storage.NeverExpire))

	mr.FastForward(24 * time.Hour)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	ttl, err := store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, storage.NeverExpire, ttl)
}

func TestGetTimeoutSentinels(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	ttl, err := store.GetTimeout(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, storage.NotValueExpire, ttl)

	require.NoError(t, store.Set(ctx, "k", "v", 60))
	ttl, err = store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(60), ttl)
}

func TestUpdateKeepsTTL(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", "v", 60))
	require.NoError(t, store.Update(ctx, "k", "v2"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	ttl, err := store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(60), ttl)
}

func TestUpdateAbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Update(ctx, "missing", "v"))

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateTimeout(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", "v", 60))
	require.NoError(t, store.UpdateTimeout(ctx, "k", 600))

	ttl, err := store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(600), ttl)

	require.NoError(t, store.UpdateTimeout(ctx, "k", storage.NeverExpire))
	ttl, err = store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, storage.NeverExpire, ttl)
}

func TestSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	ok, err := store.SetIfAbsent(ctx, "k", "v", 60)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetIfAbsent(ctx, "k", "v2", 60)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestSearchKeys(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "app:token:a", "1", 60))
	require.NoError(t, store.Set(ctx, "app:token:b", "1", 60))
	require.NoError(t, store.Set(ctx, "app:session:a", "1", 60))

	keys, err := store.SearchKeys(ctx, "app:token:", "", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:token:a", "app:token:b"}, keys)

	keys, err = store.SearchKeys(ctx, "app:token:", "b", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:token:b"}, keys)
}

func TestInitPingsServer(t *testing.T) {
	store, _ := setupTestRedis(t)
	require.NoError(t, store.Init())
	require.NoError(t, store.Destroy())
}
