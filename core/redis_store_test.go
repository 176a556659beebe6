package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(RedisStoreOptions{
		RedisURL: "redis://" + mr.Addr(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreBasicOperations(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	val, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, store.Set(ctx, "snapshot", `{"count": 2}`, 0))

	val, err = store.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"count": 2}`, val)

	exists, err := store.Exists(ctx, "snapshot")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "snapshot"))
	exists, err = store.Exists(ctx, "snapshot")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisStoreNamespacing(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(RedisStoreOptions{
		RedisURL:  "redis://" + mr.Addr(),
		Namespace: "tenant-a",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "snapshot", "v", 0))

	// The raw key carries the namespace prefix
	raw, err := mr.Get("tenant-a:snapshot")
	require.NoError(t, err)
	assert.Equal(t, "v", raw)
}

func TestRedisStoreDefaultNamespace(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "snapshot", "v", 0))
	assert.True(t, mr.Exists(DefaultRedisNamespace+":snapshot"))
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "v", time.Minute))

	mr.FastForward(2 * time.Minute)

	val, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestNewRedisStoreValidation(t *testing.T) {
	_, err := NewRedisStore(RedisStoreOptions{})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	_, err = NewRedisStore(RedisStoreOptions{RedisURL: "://bad"})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
