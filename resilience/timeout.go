package resilience

import (
	"context"
	"time"
)

// RaceTimeout runs fn in its own goroutine and waits at most d for it to
// finish. On timeout (or context cancellation) the fallback value is
// returned and the goroutine keeps running to completion in the
// background; the result of a late finisher is simply discarded. This is
// the "stop waiting, don't cancel" pattern used for badge counts and
// list screens that must never block the UI.
func RaceTimeout[T any](ctx context.Context, d time.Duration, fallback T, fn func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}

	ch := make(chan outcome, 1)
	go func() {
		val, err := fn()
		ch <- outcome{val: val, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.val, out.err
	case <-timer.C:
		return fallback, context.DeadlineExceeded
	case <-ctx.Done():
		return fallback, ctx.Err()
	}
}
