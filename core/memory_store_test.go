package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBasicOperations(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	val, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, store.Set(ctx, "snapshot", `{"count": 3}`, 0))

	val, err = store.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"count": 3}`, val)

	exists, err := store.Exists(ctx, "snapshot")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "snapshot"))
	exists, err = store.Exists(ctx, "snapshot")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "v", 30*time.Millisecond))

	val, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	time.Sleep(50 * time.Millisecond)

	val, err = store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	exists, err := store.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "forever", "v", 0))
	time.Sleep(20 * time.Millisecond)

	val, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%4)
			assert.NoError(t, store.Set(ctx, key, "v", time.Minute))
			_, err := store.Get(ctx, key)
			assert.NoError(t, err)
			_, err = store.Exists(ctx, key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
