package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSharesInFlightCall(t *testing.T) {
	var g Group
	var executions int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	shared := make([]bool, 5)
	values := make([]interface{}, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val, wasShared, err := g.Do("cart", func() (interface{}, error) {
				atomic.AddInt32(&executions, 1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			shared[i] = wasShared
			values[i] = val
		}(i)
	}

	assert.Eventually(t, func() bool {
		return g.InFlight("cart")
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&executions))
	sharedCount := 0
	for i := range shared {
		assert.Equal(t, 42, values[i])
		if shared[i] {
			sharedCount++
		}
	}
	assert.Equal(t, 4, sharedCount)
	assert.False(t, g.InFlight("cart"))
}

func TestGroupDistinctKeysRunIndependently(t *testing.T) {
	var g Group
	var executions int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for _, key := range []string{"a", "b"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, _, _ = g.Do(key, func() (interface{}, error) {
				atomic.AddInt32(&executions, 1)
				<-release
				return nil, nil
			})
		}(key)
	}

	assert.Eventually(t, func() bool {
		return g.InFlight("a") && g.InFlight("b")
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&executions))
}

func TestGroupErrorSharedWithWaiters(t *testing.T) {
	var g Group
	release := make(chan struct{})
	boom := errors.New("boom")

	done := make(chan error, 1)
	go func() {
		_, _, err := g.Do("k", func() (interface{}, error) {
			<-release
			return nil, boom
		})
		done <- err
	}()

	require.Eventually(t, func() bool {
		return g.InFlight("k")
	}, time.Second, 5*time.Millisecond)

	waiterDone := make(chan error, 1)
	go func() {
		_, shared, err := g.Do("k", func() (interface{}, error) {
			t.Error("waiter must not execute fn")
			return nil, nil
		})
		assert.True(t, shared)
		waiterDone <- err
	}()

	close(release)
	assert.ErrorIs(t, <-done, boom)
	assert.ErrorIs(t, <-waiterDone, boom)
}

func TestGroupSequentialCallsExecuteAgain(t *testing.T) {
	var g Group
	var executions int

	for i := 0; i < 3; i++ {
		_, shared, err := g.Do("k", func() (interface{}, error) {
			executions++
			return executions, nil
		})
		require.NoError(t, err)
		assert.False(t, shared)
	}
	assert.Equal(t, 3, executions)
}
