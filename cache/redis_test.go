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

func newRedisStore(t *testing.T, prefix string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, prefix), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newRedisStore(t, "chat:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "greeting", "hello", time.Minute))
	assert.True(t, mr.Exists("chat:greeting"))
	assert.Equal(t, time.Minute, mr.TTL("chat:greeting"))

	v, ok, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	require.NoError(t, store.Delete(ctx, "greeting"))
	require.NoError(t, store.Delete(ctx, "greeting"))

	v, ok, err = store.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestRedisStore_JSONValues(t *testing.T) {
	store, _ := newRedisStore(t, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "zero", 0, 0))
	require.NoError(t, store.Set(ctx, "false", false, 0))
	require.NoError(t, store.Set(ctx, "obj", map[string]any{"id": 7}, 0))

	v, ok, _ := store.Get(ctx, "zero")
	assert.True(t, ok)
	assert.Equal(t, float64(0), v)

	v, ok, _ = store.Get(ctx, "false")
	assert.True(t, ok)
	assert.Equal(t, false, v)

	v, _, _ = store.Get(ctx, "obj")
	assert.Equal(t, map[string]any{"id": float64(7)}, v)
}

func TestRedisStore_ResetScopedToPrefix(t *testing.T) {
	store, mr := newRedisStore(t, "chat:")
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(ctx, k, k, 0))
	}
	require.NoError(t, mr.Set("other:keep", "1"))

	require.NoError(t, store.Reset(ctx))

	assert.False(t, mr.Exists("chat:a"))
	assert.False(t, mr.Exists("chat:c"))
	assert.True(t, mr.Exists("other:keep"))
}

func TestRedisStore_ResetEscapesPrefix(t *testing.T) {
	store, mr := newRedisStore(t, "room[1]*:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "a", 0))
	require.NoError(t, mr.Set("room1:keep", "1"))
	require.NoError(t, mr.Set("room1xyz:keep", "1"))

	require.NoError(t, store.Reset(ctx))

	assert.False(t, mr.Exists("room[1]*:a"))
	assert.True(t, mr.Exists("room1:keep"))
	assert.True(t, mr.Exists("room1xyz:keep"))
}

func TestEscapeGlob(t *testing.T) {
	tests := map[string]string{
		"chat:":      "chat:",
		"a*b":        `a\*b`,
		"q?":         `q\?`,
		"[x]":        `\[x\]`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeGlob(in), "escapeGlob(%q)", in)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newRedisStore(t, "")
	mr.Close()
	ctx := context.Background()

	_, _, err := store.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "k", 1, 0))
	assert.Error(t, store.Ping(ctx))

	f, ferr := NewFacade(store)
	require.NoError(t, ferr)
	assert.Nil(t, f.Get(ctx, "k"))
	assert.Error(t, f.Clear(ctx))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()).Err())
	_ = client.Close()

	client, err = Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()).Err())
	_ = client.Close()

	_, err = Connect(context.Background(), "redis://%zz")
	assert.Error(t, err)
}
