// Package resilience provides the small fault-tolerance primitives the
// SDK composes around network calls: single-flight request deduplication
// and race-against-timeout with a safe default.
package resilience

import "sync"

// Group deduplicates concurrent calls by key: while one call is in
// flight, later callers with the same key wait for and share its result
// instead of launching their own. Unlike a dropped-refresh scheme,
// callers always get the in-flight result back.
type Group struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done chan struct{}
	val  interface{}
	err  error
}

// Do executes fn for key, unless a call for the same key is already in
// flight, in which case it waits for that call and returns its result.
// The second return value reports whether the result was shared.
func (g *Group) Do(key string, fn func() (interface{}, error)) (interface{}, bool, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	if existing, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-existing.done
		return existing.val, true, existing.err
	}

	c := &call{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(c.done)

	return c.val, false, c.err
}

// InFlight reports whether a call for key is currently running.
func (g *Group) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}
