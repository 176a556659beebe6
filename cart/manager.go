// Package cart owns the client-side cart cache: the last known cart, a
// validity window, a debounced single-flight refresh, and the optimistic
// count primitives the badge UI mutates before the server confirms.
//
// The manager is constructed at login and torn down at logout; it is the
// only writer of the cached cart. Optimistic count mutations are
// compensated at the call site on failure - the manager exposes the
// increment/decrement primitives but never rolls back on its own.
package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
)

// Fetcher is the single dependency on the API client.
type Fetcher interface {
	GetCart(ctx context.Context) (normalize.CartResult, error)
}

// CacheMetrics is the optional instrumentation hook for cache behavior.
// telemetry.CartMetrics provides the Prometheus-backed implementation.
type CacheMetrics interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordStaleDrop()
}

const snapshotKey = "snapshot"

// Manager states, exposed for logging and tests via State().
const (
	StateEmpty      = "empty"
	StateCold       = "cold"
	StateWarm       = "warm"
	StateRefreshing = "refreshing"
)

// Manager holds the process-wide cart cache for one authenticated
// session. All methods are safe for concurrent use.
type Manager struct {
	fetcher   Fetcher
	logger    core.Logger
	snapshots core.Memory
	metrics   CacheMetrics

	validity     time.Duration
	debounce     time.Duration
	countTimeout time.Duration
	fetchTimeout time.Duration
	snapshotTTL  time.Duration

	mu            sync.Mutex
	role          string
	sessionActive bool
	cached        normalize.CartResult
	hasCache      bool
	cachedAt      time.Time
	count         int

	// Monotonic versioning: a fetch result older than the currently
	// applied version is discarded, so a slow stale response cannot
	// overwrite fresher data.
	appliedVersion uint64
	nextVersion    uint64

	pending *pendingFetch
}

type pendingFetch struct {
	done    chan struct{}
	count   int
	version uint64
}

// ManagerOption configures the manager
type ManagerOption func(*Manager)

// WithLogger sets the structured logger
func WithLogger(logger core.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSnapshotStore mirrors accepted cache writes into a Memory store so
// a restarted process can warm the badge count immediately.
func WithSnapshotStore(store core.Memory) ManagerOption {
	return func(m *Manager) {
		m.snapshots = store
	}
}

// WithCacheMetrics sets the metrics implementation
func WithCacheMetrics(metrics CacheMetrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a manager in the empty state. A nil config uses the
// built-in defaults.
func NewManager(fetcher Fetcher, cfg *core.Config, opts ...ManagerOption) *Manager {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}

	m := &Manager{
		fetcher:      fetcher,
		logger:       &core.NoOpLogger{},
		validity:     cfg.CacheValidity,
		debounce:     cfg.DebounceDelay,
		countTimeout: cfg.CountTimeout,
		fetchTimeout: cfg.CartReadTimeout,
		snapshotTTL:  core.DefaultSnapshotTTL,
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetSession tells the manager a session exists and what role it has.
// Cart fetching only proceeds for customers; any other role drops the
// cache immediately so the customer-only endpoints are never hit.
func (m *Manager) SetSession(role string) {
	m.mu.Lock()
	m.sessionActive = true
	m.role = role
	if role != core.RoleCustomer {
		m.dropCacheLocked()
		m.mu.Unlock()
		m.logger.Debug("Non-customer session, cart cache disabled", map[string]interface{}{
			"operation": "cart_session",
			"role":      role,
		})
		return
	}
	m.mu.Unlock()

	m.loadSnapshot()
}

// ClearSession tears the cache down at logout.
func (m *Manager) ClearSession() {
	m.mu.Lock()
	m.sessionActive = false
	m.role = ""
	m.dropCacheLocked()
	m.mu.Unlock()

	if m.snapshots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.snapshots.Delete(ctx, snapshotKey)
	}
}

func (m *Manager) dropCacheLocked() {
	m.cached = normalize.EmptyCartResult()
	m.hasCache = false
	m.cachedAt = time.Time{}
	m.count = 0
}

// State reports the lifecycle state: empty, cold, warm or refreshing.
func (m *Manager) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case !m.sessionActive || m.role != core.RoleCustomer:
		return StateEmpty
	case m.pending != nil:
		return StateRefreshing
	case m.cacheValidLocked():
		return StateWarm
	default:
		return StateCold
	}
}

func (m *Manager) cacheValidLocked() bool {
	return m.hasCache && time.Since(m.cachedAt) < m.validity
}

// ItemCount returns the currently displayed count, optimistic mutations
// included.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// CachedCart returns the cached cart and whether it is still within the
// validity window.
func (m *Manager) CachedCart() (normalize.CartResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached, m.cacheValidLocked()
}

// CartsArray returns the flattened cart list from the cache, valid or
// not; an empty slice when nothing is cached.
func (m *Manager) CartsArray() []core.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasCache {
		return []core.Cart{}
	}
	return m.cached.CartsArray()
}

// RefreshCount returns the cart item count for the badge. A warm cache
// answers without a network call; otherwise one fetch is scheduled after
// the debounce window and every caller in the burst awaits the same
// fetch. The wait is capped: past the count timeout the badge falls back
// to zero while the fetch keeps running and still updates the cache when
// it lands.
func (m *Manager) RefreshCount(ctx context.Context) int {
	m.mu.Lock()
	if !m.sessionActive || m.role != core.RoleCustomer {
		m.mu.Unlock()
		return 0
	}
	if m.cacheValidLocked() {
		count := m.count
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.RecordCacheHit()
		}
		return count
	}
	if m.metrics != nil {
		m.metrics.RecordCacheMiss()
	}

	p := m.pending
	if p == nil {
		p = &pendingFetch{
			done:    make(chan struct{}),
			version: m.allocVersionLocked(),
		}
		m.pending = p
		time.AfterFunc(m.debounce, func() { m.runFetch(p) })
	}
	m.mu.Unlock()

	timer := time.NewTimer(m.countTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return p.count
	case <-timer.C:
		m.logger.Debug("Cart count refresh timed out, falling back to zero", map[string]interface{}{
			"operation":  "cart_refresh",
			"timeout_ms": m.countTimeout.Milliseconds(),
		})
		return 0
	case <-ctx.Done():
		return 0
	}
}

func (m *Manager) runFetch(p *pendingFetch) {
	ctx, cancel := context.WithTimeout(context.Background(), m.fetchTimeout)
	defer cancel()

	result, err := m.fetcher.GetCart(ctx)

	m.mu.Lock()
	m.pending = nil

	switch {
	case !m.sessionActive || m.role != core.RoleCustomer:
		// Session changed while the fetch was in flight
		p.count = 0
	case err != nil:
		// Badge UI must stay non-blocking: refresh failures degrade to
		// zero and the error is not surfaced
		p.count = 0
		m.mu.Unlock()
		m.logger.Warn("Cart refresh failed", map[string]interface{}{
			"operation": "cart_refresh",
			"error":     err.Error(),
		})
		close(p.done)
		return
	case p.version > m.appliedVersion:
		m.applyLocked(result, p.version)
		p.count = m.count
	default:
		// A newer write landed while this fetch was in flight
		p.count = m.count
		if m.metrics != nil {
			m.metrics.RecordStaleDrop()
		}
		m.logger.Debug("Discarded stale cart fetch result", map[string]interface{}{
			"operation":       "cart_refresh",
			"fetch_version":   p.version,
			"applied_version": m.appliedVersion,
		})
	}
	m.mu.Unlock()
	close(p.done)
}

// UpdateCache overwrites the cached cart with the result of a mutation
// (add/remove/update/clear) and recomputes the displayed count. The
// write is stamped with a fresh version so any older in-flight fetch is
// discarded when it lands.
func (m *Manager) UpdateCache(result normalize.CartResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sessionActive || m.role != core.RoleCustomer {
		return
	}
	m.applyLocked(result, m.allocVersionLocked())
}

func (m *Manager) allocVersionLocked() uint64 {
	m.nextVersion++
	return m.nextVersion
}

func (m *Manager) applyLocked(result normalize.CartResult, version uint64) {
	m.cached = result
	m.hasCache = true
	m.cachedAt = time.Now()
	m.count = result.ItemCount()
	m.appliedVersion = version
	m.persistSnapshotLocked()
}

// InvalidateCache clears the cached cart and its timestamp without
// fetching. The displayed count is kept; the next RefreshCount fetches.
func (m *Manager) InvalidateCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = normalize.EmptyCartResult()
	m.hasCache = false
	m.cachedAt = time.Time{}
}

// IncrementCount applies an optimistic count bump before the server
// confirms a mutation.
func (m *Manager) IncrementCount(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count += n
}

// DecrementCount is the optimistic inverse of IncrementCount and the
// compensating action call sites invoke when a mutation fails. The
// displayed count floors at zero.
func (m *Manager) DecrementCount(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count -= n
	if m.count < 0 {
		m.count = 0
	}
}

// cartSnapshot is the persisted form of an accepted cache write.
type cartSnapshot struct {
	Count    int         `json:"count"`
	Total    float64     `json:"total"`
	Carts    []core.Cart `json:"carts"`
	CachedAt time.Time   `json:"cached_at"`
}

func (m *Manager) persistSnapshotLocked() {
	if m.snapshots == nil {
		return
	}
	snap := cartSnapshot{
		Count:    m.count,
		Total:    m.cached.Total,
		Carts:    m.cached.CartsArray(),
		CachedAt: m.cachedAt,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	// Best effort, off the lock path
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.snapshots.Set(ctx, snapshotKey, string(data), m.snapshotTTL); err != nil {
			m.logger.Debug("Cart snapshot persist failed", map[string]interface{}{
				"operation": "cart_snapshot",
				"error":     err.Error(),
			})
		}
	}()
}

// loadSnapshot warms the badge count from a previous process. The cache
// itself stays cold; the first RefreshCount still fetches.
func (m *Manager) loadSnapshot() {
	if m.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := m.snapshots.Get(ctx, snapshotKey)
	if err != nil || data == "" {
		return
	}
	var snap cartSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return
	}

	m.mu.Lock()
	if m.sessionActive && m.role == core.RoleCustomer && !m.hasCache {
		m.count = snap.Count
	}
	m.mu.Unlock()

	m.logger.Debug("Warmed cart badge from snapshot", map[string]interface{}{
		"operation": "cart_snapshot",
		"count":     snap.Count,
	})
}
