package core

import "time"

// User roles as reported by the identity provider. Cart fetching is gated
// on RoleCustomer; a store-owner session must never hit the customer-only
// cart endpoints.
const (
	RoleCustomer   = "customer"
	RoleStoreOwner = "store_owner"
)

// Default configuration values. All of them can be overridden via Config.
const (
	DefaultBaseURL = "https://api.vencebem.com.br/v1"

	// DefaultHTTPTimeout bounds a single HTTP round-trip
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultCacheValidity is the window during which a cached cart is
	// served without a network call
	DefaultCacheValidity = 10 * time.Second

	// DefaultDebounceDelay coalesces bursts of cart-count refreshes into
	// one network request
	DefaultDebounceDelay = 500 * time.Millisecond

	// DefaultCountTimeout caps how long a badge-count refresh waits
	// before falling back to zero
	DefaultCountTimeout = 1 * time.Second

	// Per-endpoint read deadlines
	DefaultCartReadTimeout  = 8 * time.Second
	DefaultFavoritesTimeout = 5 * time.Second
	DefaultListingTimeout   = 15 * time.Second
)

// Redis defaults for the optional snapshot store
const (
	DefaultRedisNamespace = "vencebem:cart"
	DefaultSnapshotTTL    = 24 * time.Hour
)
