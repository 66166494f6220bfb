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

type sample struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestStore_SetAndGetJSON(t *testing.T) {
	t.Parallel()
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "task:1", sample{Status: "processing", Progress: 50}, time.Minute))

	var got sample
	found, err := store.GetJSON(ctx, "task:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Status: "processing", Progress: 50}, got)
	assert.Equal(t, time.Minute, mr.TTL("task:1"))
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	var got sample
	found, err := store.GetJSON(context.Background(), "task:absent", &got)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "task:2", sample{Status: "completed"}, 0))
	assert.Equal(t, DefaultTTL, mr.TTL("task:2"), "non-positive ttl falls back to the default")

	mr.FastForward(DefaultTTL + time.Second)

	var got sample
	found, err := store.GetJSON(ctx, "task:2", &got)
	require.NoError(t, err)
	assert.False(t, found, "expired entries read as missing")
}

func TestStore_SetJSONIfAbsent(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.SetJSONIfAbsent(ctx, "task:3", sample{Status: "processing"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetJSONIfAbsent(ctx, "task:3", sample{Status: "completed"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var got sample
	_, err = store.GetJSON(ctx, "task:3", &got)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
}

func TestStore_DecodeError(t *testing.T) {
	t.Parallel()
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("task:bad", "not json"))

	var got sample
	_, err := store.GetJSON(context.Background(), "task:bad", &got)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestStore_DeleteAndPing(t *testing.T) {
	t.Parallel()
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "a", 1, time.Minute))
	require.NoError(t, store.Delete(ctx, "a", "b"))
	require.NoError(t, store.Delete(ctx))
	assert.False(t, mr.Exists("a"))
	assert.NoError(t, store.Ping(ctx))
}

func TestConnect(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = Connect(context.Background(), "://bad")
	assert.Error(t, err)
}
