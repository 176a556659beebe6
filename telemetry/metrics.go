package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClientMetrics holds the Prometheus instruments for the API client. It
// implements client.Metrics.
type ClientMetrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	NetworkFailuresTotal *prometheus.CounterVec
	AuthRefreshesTotal   prometheus.Counter
}

// NewClientMetrics registers the client instruments with the given
// registerer. A nil registerer uses the default registry.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &ClientMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vencebem_client_requests_total",
				Help: "API requests by operation and HTTP status",
			},
			[]string{"operation", "status"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vencebem_client_request_duration_seconds",
				Help:    "API request round-trip time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"operation"},
		),

		NetworkFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vencebem_client_network_failures_total",
				Help: "Requests that failed before receiving an HTTP status",
			},
			[]string{"operation"},
		),

		AuthRefreshesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vencebem_client_auth_refreshes_total",
				Help: "Token refreshes triggered by a 401 response",
			},
		),
	}
}

// ObserveRequest records one completed request
func (m *ClientMetrics) ObserveRequest(operation string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordNetworkFailure records a request that never got a status code
func (m *ClientMetrics) RecordNetworkFailure(operation string) {
	m.NetworkFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordAuthRefresh records a 401-triggered token refresh
func (m *ClientMetrics) RecordAuthRefresh() {
	m.AuthRefreshesTotal.Inc()
}

// CartMetrics holds the Prometheus instruments for the cart cache. It
// implements cart.CacheMetrics.
type CartMetrics struct {
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	StaleDropsTotal  prometheus.Counter
}

// NewCartMetrics registers the cart cache instruments with the given
// registerer. A nil registerer uses the default registry.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &CartMetrics{
		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vencebem_cart_cache_hits_total",
				Help: "Badge refreshes answered from a warm cart cache",
			},
		),
		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vencebem_cart_cache_misses_total",
				Help: "Badge refreshes that had to schedule a cart fetch",
			},
		),
		StaleDropsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vencebem_cart_stale_drops_total",
				Help: "Cart fetch results discarded because a newer write landed first",
			},
		),
	}
}

// RecordCacheHit records a badge refresh served from cache
func (m *CartMetrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a badge refresh that scheduled a fetch
func (m *CartMetrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// RecordStaleDrop records a discarded out-of-date fetch result
func (m *CartMetrics) RecordStaleDrop() {
	m.StaleDropsTotal.Inc()
}
