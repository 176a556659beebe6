package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
)

// fakeFetcher is a scriptable Fetcher. Setting block makes GetCart wait
// until release is closed, for in-flight ordering tests.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	result  normalize.CartResult
	err     error
	block   bool
	release chan struct{}
}

func (f *fakeFetcher) GetCart(ctx context.Context) (normalize.CartResult, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	release := f.release
	result := f.result
	err := f.err
	f.mu.Unlock()

	if block {
		select {
		case <-release:
		case <-ctx.Done():
			return normalize.EmptyCartResult(), ctx.Err()
		}
	}
	return result, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func singleCart(quantities ...int) normalize.CartResult {
	items := make([]core.CartItem, 0, len(quantities))
	for i, q := range quantities {
		items = append(items, core.CartItem{BatchID: string(rune('a' + i)), Quantity: q})
	}
	return normalize.CartResult{
		Kind: normalize.CartSingle,
		Cart: core.Cart{ID: "c1", StoreID: "s1", Items: items},
	}
}

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	cfg, err := core.NewConfig(
		core.WithCacheValidity(200*time.Millisecond),
		core.WithDebounceDelay(20*time.Millisecond),
		core.WithCountTimeout(100*time.Millisecond),
	)
	require.NoError(t, err)
	return cfg
}

func TestRefreshCountFetchesAndCaches(t *testing.T) {
	fetcher := &fakeFetcher{result: singleCart(2, 3)}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	assert.Equal(t, 5, m.RefreshCount(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, StateWarm, m.State())

	// Warm cache: no second network call inside the validity window
	assert.Equal(t, 5, m.RefreshCount(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())
}

func TestRefreshCountExpiredCacheRefetches(t *testing.T) {
	fetcher := &fakeFetcher{result: singleCart(1)}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	assert.Equal(t, 1, m.RefreshCount(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())

	time.Sleep(250 * time.Millisecond) // past the validity window
	assert.Equal(t, StateCold, m.State())

	fetcher.mu.Lock()
	fetcher.result = singleCart(4)
	fetcher.mu.Unlock()

	assert.Equal(t, 4, m.RefreshCount(context.Background()))
	assert.Equal(t, 2, fetcher.callCount())
}

func TestRefreshCountCoalescesBursts(t *testing.T) {
	fetcher := &fakeFetcher{result: singleCart(2)}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	var wg sync.WaitGroup
	counts := make([]int, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i] = m.RefreshCount(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, fetcher.callCount())
	for _, count := range counts {
		assert.Equal(t, 2, count)
	}
}

func TestRefreshCountTimesOutToZero(t *testing.T) {
	fetcher := &fakeFetcher{
		result:  singleCart(3),
		block:   true,
		release: make(chan struct{}),
	}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	start := time.Now()
	count := m.RefreshCount(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, 0, count)
	assert.Less(t, elapsed, 500*time.Millisecond)

	// The fetch keeps running and still lands in the cache
	close(fetcher.release)
	assert.Eventually(t, func() bool {
		return m.ItemCount() == 3
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateWarm, m.State())
}

func TestRefreshCountRoleGating(t *testing.T) {
	fetcher := &fakeFetcher{result: singleCart(2)}
	m := NewManager(fetcher, testConfig(t))

	// No session at all
	assert.Equal(t, 0, m.RefreshCount(context.Background()))

	// Store owner session never touches the cart endpoints
	m.SetSession(core.RoleStoreOwner)
	assert.Equal(t, 0, m.RefreshCount(context.Background()))
	assert.Equal(t, StateEmpty, m.State())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, fetcher.callCount())
}

func TestRefreshCountFailureFallsBackToZero(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("network down")}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	assert.Equal(t, 0, m.RefreshCount(context.Background()))
	assert.Equal(t, StateCold, m.State())
}

func TestOptimisticCountFloorsAtZero(t *testing.T) {
	m := NewManager(&fakeFetcher{}, testConfig(t))
	m.SetSession(core.RoleCustomer)

	m.IncrementCount(3)
	assert.Equal(t, 3, m.ItemCount())

	m.DecrementCount(1)
	assert.Equal(t, 2, m.ItemCount())

	// Compensation below zero clamps
	m.DecrementCount(10)
	assert.Equal(t, 0, m.ItemCount())

	// Non-positive deltas are ignored
	m.IncrementCount(0)
	m.DecrementCount(-5)
	assert.Equal(t, 0, m.ItemCount())
}

func TestUpdateCacheOverwritesAndWarms(t *testing.T) {
	fetcher := &fakeFetcher{result: singleCart(1)}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	m.UpdateCache(singleCart(4))
	assert.Equal(t, 4, m.ItemCount())
	assert.Equal(t, StateWarm, m.State())

	cached, valid := m.CachedCart()
	assert.True(t, valid)
	assert.Equal(t, 4, cached.ItemCount())

	// Warm cache short-circuits the refresh
	assert.Equal(t, 4, m.RefreshCount(context.Background()))
	assert.Equal(t, 0, fetcher.callCount())
}

func TestStaleFetchDiscardedAfterNewerWrite(t *testing.T) {
	fetcher := &fakeFetcher{
		result:  singleCart(5),
		block:   true,
		release: make(chan struct{}),
	}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	// Start a refresh that will hang in flight
	done := make(chan struct{})
	go func() {
		m.RefreshCount(context.Background())
		close(done)
	}()
	assert.Eventually(t, func() bool {
		return fetcher.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// A mutation result lands while the fetch is still running
	m.UpdateCache(singleCart(2))
	assert.Equal(t, 2, m.ItemCount())

	// The older fetch result must not clobber the newer write
	close(fetcher.release)
	<-done
	assert.Eventually(t, func() bool {
		return m.State() == StateWarm
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, m.ItemCount())
}

func TestInvalidateCacheKeepsCountUntilNextRefresh(t *testing.T) {
	fetcher := &fakeFetcher{result: singleCart(7)}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	m.UpdateCache(singleCart(3))
	m.InvalidateCache()

	assert.Equal(t, 3, m.ItemCount())
	_, valid := m.CachedCart()
	assert.False(t, valid)
	assert.Empty(t, m.CartsArray())

	// The next refresh fetches instead of serving the dropped cache
	assert.Equal(t, 7, m.RefreshCount(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())
}

func TestClearSessionDropsEverything(t *testing.T) {
	fetcher := &fakeFetcher{result: singleCart(2)}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	m.UpdateCache(singleCart(2))
	require.Equal(t, 2, m.ItemCount())

	m.ClearSession()
	assert.Equal(t, 0, m.ItemCount())
	assert.Equal(t, StateEmpty, m.State())
	assert.Equal(t, 0, m.RefreshCount(context.Background()))
}

func TestSessionChangeDiscardsInFlightFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		result:  singleCart(6),
		block:   true,
		release: make(chan struct{}),
	}
	m := NewManager(fetcher, testConfig(t))
	m.SetSession(core.RoleCustomer)

	go m.RefreshCount(context.Background())
	assert.Eventually(t, func() bool {
		return fetcher.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	m.ClearSession()
	close(fetcher.release)

	// The result of the orphaned fetch must not resurrect the cache
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, m.ItemCount())
	assert.Equal(t, StateEmpty, m.State())
}

func TestUpdateCacheIgnoredWithoutCustomerSession(t *testing.T) {
	m := NewManager(&fakeFetcher{}, testConfig(t))

	m.UpdateCache(singleCart(5))
	assert.Equal(t, 0, m.ItemCount())

	m.SetSession(core.RoleStoreOwner)
	m.UpdateCache(singleCart(5))
	assert.Equal(t, 0, m.ItemCount())
}

func TestSnapshotWarmsBadgeAcrossManagers(t *testing.T) {
	store := core.NewMemoryStore()

	first := NewManager(&fakeFetcher{}, testConfig(t), WithSnapshotStore(store))
	first.SetSession(core.RoleCustomer)
	first.UpdateCache(singleCart(2, 1))

	// Snapshot writes are asynchronous
	require.Eventually(t, func() bool {
		exists, err := store.Exists(context.Background(), "snapshot")
		return err == nil && exists
	}, time.Second, 10*time.Millisecond)

	fetcher := &fakeFetcher{
		result:  singleCart(9),
		block:   true,
		release: make(chan struct{}),
	}
	defer close(fetcher.release)

	second := NewManager(fetcher, testConfig(t), WithSnapshotStore(store))
	second.SetSession(core.RoleCustomer)

	// Badge warms from the snapshot before any fetch completes
	assert.Equal(t, 3, second.ItemCount())
	// But the cache itself stays cold
	assert.Equal(t, StateCold, second.State())
}

func TestClearSessionDeletesSnapshot(t *testing.T) {
	store := core.NewMemoryStore()
	m := NewManager(&fakeFetcher{}, testConfig(t), WithSnapshotStore(store))
	m.SetSession(core.RoleCustomer)
	m.UpdateCache(singleCart(1))

	require.Eventually(t, func() bool {
		exists, err := store.Exists(context.Background(), "snapshot")
		return err == nil && exists
	}, time.Second, 10*time.Millisecond)

	m.ClearSession()
	exists, err := store.Exists(context.Background(), "snapshot")
	require.NoError(t, err)
	assert.False(t, exists)
}
