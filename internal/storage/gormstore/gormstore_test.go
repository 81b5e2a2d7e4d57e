package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orris-inc/tokengate/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := New(db, -1, nil)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store.now = func() time.Time { return now }
	return store, &now
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "k", "v", 60))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "k", "v", 60))
	require.NoError(t, store.Set(ctx, "k", "v2", 120))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	ttl, err := store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(120), ttl)
}

func TestLazyExpiry(t *testing.T) {
	ctx := context.Background()
	store, now := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "k", "v", 10))

	*now = now.Add(11 * time.Second)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)

	ttl, err := store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, storage.NotValueExpire, ttl)

	// The read deletes the expired row, not just hides it.
	var remaining int64
	require.NoError(t, store.db.Model(&Record{}).Where("k = ?", "k").Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestNeverExpire(t *testing.T) {
	ctx := context.Background()
	store, now := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "k", "v", storage.NeverExpire))

	*now = now.Add(1000 * time.Hour)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	ttl, err := store.GetTimeout(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, storage.NeverExpire, ttl)
}

func TestUpdateGuards(t *testing.T) {
	ctx := context.Background()
	store, now := setupTestStore(t)

	require.NoError(t, store.Update(ctx, "missing", "v"))
	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(ctx, "k", "v", 60))
	require.NoError(t, store.Update(ctx, "k", "v2"))
	got, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	// An expired row must not come back to life through Update.
	require.NoError(t, store.Set(ctx, "dead", "v", 10))
	*now = now.Add(11 * time.Second)
	require.NoError(t, store.Update(ctx, "dead", "v2"))
	got, err = store.Get(ctx, "dead")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	store, now := setupTestStore(t)

	ok, err := store.SetIfAbsent(ctx, "k", "v", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetIfAbsent(ctx, "k", "v2", 10)
	require.NoError(t, err)
	assert.False(t, ok)

	*now = now.Add(11 * time.Second)

	ok, err = store.SetIfAbsent(ctx, "k", "v3", 10)
	require.NoError(t, err)
	assert.True(t, ok, "expired row counts as absent")

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v3", got)
}

func TestUpdateTimeout(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

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

func TestSearchKeysSkipsExpired(t *testing.T) {
	ctx := context.Background()
	store, now := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "app:token:a", "1", 60))
	require.NoError(t, store.Set(ctx, "app:token:b", "1", 5))
	require.NoError(t, store.Set(ctx, "app:session:a", "1", 60))

	*now = now.Add(6 * time.Second)

	keys, err := store.SearchKeys(ctx, "app:token:", "", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"app:token:a"}, keys)
}

func TestSweepBulkDeletes(t *testing.T) {
	ctx := context.Background()
	store, now := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "a", "1", 10))
	require.NoError(t, store.Set(ctx, "b", "1", 10))
	require.NoError(t, store.Set(ctx, "c", "1", storage.NeverExpire))

	*now = now.Add(11 * time.Second)
	store.Sweep()

	var count int64
	require.NoError(t, store.db.Model(&Record{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDestroyTwice(t *testing.T) {
	store, _ := setupTestStore(t)
	require.NoError(t, store.Init())
	require.NoError(t, store.Destroy())
	require.NoError(t, store.Destroy())
}
