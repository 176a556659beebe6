package core

import (
	"context"
	"time"
)

// Logger interface - minimal logging interface shared by every package.
// Implementations must be safe for concurrent use.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})
}

// Telemetry interface - optional tracing/metrics support
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a telemetry span
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// TokenProvider is the identity-provider contract the SDK depends on.
// The SDK never refreshes tokens itself beyond calling RefreshAccessToken
// exactly once after a 401; session persistence belongs to the provider.
type TokenProvider interface {
	// AccessToken returns the current bearer token, or "" when there is
	// no active session. Requests proceed unauthenticated on "".
	AccessToken(ctx context.Context) (string, error)

	// RefreshAccessToken attempts a single refresh and returns the new
	// token, or "" when the session could not be refreshed.
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Memory interface for key/value state storage with TTL.
// Used by the cart manager to persist warm-badge snapshots.
type Memory interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Default no-op implementations

// NoOpLogger provides a no-op logger implementation
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

// NoOpTelemetry provides a no-op telemetry implementation
type NoOpTelemetry struct{}

func (n *NoOpTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

func (n *NoOpTelemetry) RecordMetric(name string, value float64, labels map[string]string) {}

// NoOpSpan provides a no-op span implementation
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                       {}
func (n *NoOpSpan) SetAttribute(key string, value interface{}) {}
func (n *NoOpSpan) RecordError(err error)                      {}

// StaticTokenProvider serves a fixed token. Useful for tests, CLIs and
// server-to-server integrations where the token is managed externally.
type StaticTokenProvider struct {
	Token string
}

func (s *StaticTokenProvider) AccessToken(ctx context.Context) (string, error) {
	return s.Token, nil
}

func (s *StaticTokenProvider) RefreshAccessToken(ctx context.Context) (string, error) {
	// A static token cannot be refreshed; the 401 propagates to the caller.
	return "", nil
}
