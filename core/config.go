package core

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the SDK.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithBaseURL("https://staging.api.vencebem.com.br/v1"),
//	    WithCacheValidity(5 * time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// BaseURL is the marketplace API root, including the version prefix
	BaseURL string `json:"base_url" yaml:"base_url" env:"VENCEBEM_BASE_URL"`

	// HTTPTimeout bounds a single HTTP round-trip
	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout" env:"VENCEBEM_HTTP_TIMEOUT"`

	// Cart cache tuning
	CacheValidity time.Duration `json:"cache_validity" yaml:"cache_validity" env:"VENCEBEM_CACHE_VALIDITY"`
	DebounceDelay time.Duration `json:"debounce_delay" yaml:"debounce_delay" env:"VENCEBEM_DEBOUNCE_DELAY"`
	CountTimeout  time.Duration `json:"count_timeout" yaml:"count_timeout" env:"VENCEBEM_COUNT_TIMEOUT"`

	// Per-endpoint read deadlines
	CartReadTimeout  time.Duration `json:"cart_read_timeout" yaml:"cart_read_timeout" env:"VENCEBEM_CART_READ_TIMEOUT"`
	FavoritesTimeout time.Duration `json:"favorites_timeout" yaml:"favorites_timeout" env:"VENCEBEM_FAVORITES_TIMEOUT"`
	ListingTimeout   time.Duration `json:"listing_timeout" yaml:"listing_timeout" env:"VENCEBEM_LISTING_TIMEOUT"`

	// RedisURL enables the Redis-backed snapshot store when set
	RedisURL string `json:"redis_url" yaml:"redis_url" env:"VENCEBEM_REDIS_URL"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Telemetry configuration
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// LoggingConfig controls the SDK's structured logging.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" env:"VENCEBEM_LOG_LEVEL"`
}

// TelemetryConfig controls tracing. When Endpoint is empty traces go to
// stdout in development and are disabled otherwise.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled" env:"VENCEBEM_TELEMETRY_ENABLED"`
	Endpoint    string `json:"endpoint" yaml:"endpoint" env:"VENCEBEM_TELEMETRY_ENDPOINT"`
	ServiceName string `json:"service_name" yaml:"service_name" env:"VENCEBEM_TELEMETRY_SERVICE_NAME"`
}

// Option is a functional option for configuring the SDK
type Option func(*Config)

// NewConfig creates a configuration with the standard three-layer priority.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	cfg.applyEnvironmentVariables()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults without reading the
// environment. Most callers want NewConfig instead.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		HTTPTimeout:      DefaultHTTPTimeout,
		CacheValidity:    DefaultCacheValidity,
		DebounceDelay:    DefaultDebounceDelay,
		CountTimeout:     DefaultCountTimeout,
		CartReadTimeout:  DefaultCartReadTimeout,
		FavoritesTimeout: DefaultFavoritesTimeout,
		ListingTimeout:   DefaultListingTimeout,
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "vencebem-go",
		},
	}
}

func (c *Config) applyEnvironmentVariables() {
	if v := os.Getenv("VENCEBEM_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("VENCEBEM_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv("VENCEBEM_CACHE_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheValidity = d
		}
	}
	if v := os.Getenv("VENCEBEM_DEBOUNCE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DebounceDelay = d
		}
	}
	if v := os.Getenv("VENCEBEM_COUNT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CountTimeout = d
		}
	}
	if v := os.Getenv("VENCEBEM_CART_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CartReadTimeout = d
		}
	}
	if v := os.Getenv("VENCEBEM_FAVORITES_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.FavoritesTimeout = d
		}
	}
	if v := os.Getenv("VENCEBEM_LISTING_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ListingTimeout = d
		}
	}
	if v := os.Getenv("VENCEBEM_REDIS_URL"); v != "" {
		c.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("VENCEBEM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VENCEBEM_TELEMETRY_ENABLED"); v == "true" || v == "1" {
		c.Telemetry.Enabled = true
	}
	if v := os.Getenv("VENCEBEM_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("VENCEBEM_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
}

// Validate checks the configuration for correctness
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL", ErrMissingConfiguration)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base URL %q is not a valid absolute URL", ErrInvalidConfiguration, c.BaseURL)
	}
	for name, d := range map[string]time.Duration{
		"http_timeout":      c.HTTPTimeout,
		"cache_validity":    c.CacheValidity,
		"debounce_delay":    c.DebounceDelay,
		"count_timeout":     c.CountTimeout,
		"cart_read_timeout": c.CartReadTimeout,
		"favorites_timeout": c.FavoritesTimeout,
		"listing_timeout":   c.ListingTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfiguration, name)
		}
	}
	return nil
}

// fileConfig mirrors Config for YAML decoding. Durations are strings in
// Go duration syntax ("10s", "500ms") because yaml.v3 has no native
// time.Duration support.
type fileConfig struct {
	BaseURL          string           `yaml:"base_url"`
	HTTPTimeout      string           `yaml:"http_timeout"`
	CacheValidity    string           `yaml:"cache_validity"`
	DebounceDelay    string           `yaml:"debounce_delay"`
	CountTimeout     string           `yaml:"count_timeout"`
	CartReadTimeout  string           `yaml:"cart_read_timeout"`
	FavoritesTimeout string           `yaml:"favorites_timeout"`
	ListingTimeout   string           `yaml:"listing_timeout"`
	RedisURL         string           `yaml:"redis_url"`
	Logging          *LoggingConfig   `yaml:"logging"`
	Telemetry        *TelemetryConfig `yaml:"telemetry"`
}

// LoadConfigFile layers a YAML config file on top of defaults and
// environment variables. Functional options still win.
func LoadConfigFile(path string, opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	cfg.applyEnvironmentVariables()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing config file %s: %v", ErrInvalidConfiguration, path, err)
	}

	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.RedisURL != "" {
		cfg.RedisURL = file.RedisURL
	}
	for _, entry := range []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{file.HTTPTimeout, &cfg.HTTPTimeout, "http_timeout"},
		{file.CacheValidity, &cfg.CacheValidity, "cache_validity"},
		{file.DebounceDelay, &cfg.DebounceDelay, "debounce_delay"},
		{file.CountTimeout, &cfg.CountTimeout, "count_timeout"},
		{file.CartReadTimeout, &cfg.CartReadTimeout, "cart_read_timeout"},
		{file.FavoritesTimeout, &cfg.FavoritesTimeout, "favorites_timeout"},
		{file.ListingTimeout, &cfg.ListingTimeout, "listing_timeout"},
	} {
		if entry.raw == "" {
			continue
		}
		d, err := time.ParseDuration(entry.raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, entry.name, err)
		}
		*entry.target = d
	}
	if file.Logging != nil && file.Logging.Level != "" {
		cfg.Logging.Level = file.Logging.Level
	}
	if file.Telemetry != nil {
		if file.Telemetry.Enabled {
			cfg.Telemetry.Enabled = true
		}
		if file.Telemetry.Endpoint != "" {
			cfg.Telemetry.Endpoint = file.Telemetry.Endpoint
		}
		if file.Telemetry.ServiceName != "" {
			cfg.Telemetry.ServiceName = file.Telemetry.ServiceName
		}
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithBaseURL sets the API root
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithHTTPTimeout sets the round-trip timeout
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = d
	}
}

// WithCacheValidity sets the cart cache validity window
func WithCacheValidity(d time.Duration) Option {
	return func(c *Config) {
		c.CacheValidity = d
	}
}

// WithDebounceDelay sets the refresh debounce window
func WithDebounceDelay(d time.Duration) Option {
	return func(c *Config) {
		c.DebounceDelay = d
	}
}

// WithCountTimeout sets the badge-count fallback deadline
func WithCountTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CountTimeout = d
	}
}

// WithRedisURL enables the Redis-backed snapshot store
func WithRedisURL(redisURL string) Option {
	return func(c *Config) {
		c.RedisURL = redisURL
	}
}

// WithLogLevel sets the logging level (DEBUG, INFO, WARN, ERROR)
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.Logging.Level = level
	}
}

// WithTelemetry enables tracing against the given OTLP endpoint.
// An empty endpoint selects the stdout exporter.
func WithTelemetry(endpoint string) Option {
	return func(c *Config) {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = endpoint
	}
}
