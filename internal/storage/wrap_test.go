package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tokengate/internal/storage"
	"github.com/orris-inc/tokengate/internal/storage/memory"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWrapObjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.Wrap(memory.New(-1, nil))

	require.NoError(t, store.SetObject(ctx, "obj", payload{Name: "a", Count: 3}, 60))

	var got payload
	found, err := store.GetObject(ctx, "obj", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "a", Count: 3}, got)

	ttl, err := store.GetObjectTimeout(ctx, "obj")
	require.NoError(t, err)
	assert.Equal(t, int64(60), ttl)
}

func TestWrapObjectAbsent(t *testing.T) {
	ctx := context.Background()
	store := storage.Wrap(memory.New(-1, nil))

	var got payload
	found, err := store.GetObject(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWrapUpdateObject(t *testing.T) {
	ctx := context.Background()
	store := storage.Wrap(memory.New(-1, nil))

	require.NoError(t, store.SetObject(ctx, "obj", payload{Name: "a"}, 60))
	require.NoError(t, store.UpdateObject(ctx, "obj", payload{Name: "b"}))

	var got payload
	found, err := store.GetObject(ctx, "obj", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", got.Name)
}

func TestWrapDeleteObject(t *testing.T) {
	ctx := context.Background()
	store := storage.Wrap(memory.New(-1, nil))

	require.NoError(t, store.SetObject(ctx, "obj", payload{Name: "a"}, 60))
	require.NoError(t, store.DeleteObject(ctx, "obj"))

	var got payload
	found, err := store.GetObject(ctx, "obj", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWrapPreservesConditionalSetter(t *testing.T) {
	ctx := context.Background()
	store := storage.Wrap(memory.New(-1, nil))

	cs, ok := store.(storage.ConditionalSetter)
	require.True(t, ok, "wrapped memory store must keep set-if-absent")

	wrote, err := cs.SetIfAbsent(ctx, "k", "v", 60)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = cs.SetIfAbsent(ctx, "k", "v2", 60)
	require.NoError(t, err)
	assert.False(t, wrote)
}
