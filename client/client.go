// Package client implements the marketplace API client: a single
// low-level request engine with uniform auth and error semantics, and the
// domain operations composed on top of it. Responses are normalized from
// either backend dialect before they reach callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
	"github.com/vencebem/vencebem-go/resilience"
)

// Metrics is the optional instrumentation hook for the request engine.
// telemetry.ClientMetrics provides the Prometheus-backed implementation.
type Metrics interface {
	ObserveRequest(operation string, status int, duration time.Duration)
	RecordNetworkFailure(operation string)
	RecordAuthRefresh()
}

// Client performs authenticated requests against the marketplace API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     core.TokenProvider
	logger     core.Logger
	telemetry  core.Telemetry
	metrics    Metrics
	cfg        *core.Config

	// Single-flight group so overlapping cart reads from independent
	// screens share one request instead of racing.
	flight resilience.Group

	// Per-operation failure tracking, used only to throttle logging
	// verbosity on repeated network failures. It never suppresses the
	// request itself.
	failMu      sync.Mutex
	netFailures map[string]*failureRecord

	// Idempotency key generator for checkout requests
	newIdempotencyKey func() string
}

type failureRecord struct {
	count      int
	lastLogged time.Time
	lastError  time.Time
}

// Option configures the client
type Option func(*Client)

// WithLogger sets the structured logger
func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTelemetry sets the tracing implementation
func WithTelemetry(telemetry core.Telemetry) Option {
	return func(c *Client) {
		if telemetry != nil {
			c.telemetry = telemetry
		}
	}
}

// WithMetrics sets the metrics implementation
func WithMetrics(metrics Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithTokenProvider sets the identity-provider bridge
func WithTokenProvider(tokens core.TokenProvider) Option {
	return func(c *Client) {
		if tokens != nil {
			c.tokens = tokens
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates a client. A nil config loads defaults plus environment
// variables.
func New(cfg *core.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		var err error
		cfg, err = core.NewConfig()
		if err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	idgen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("creating idempotency key generator: %w", err)
	}

	c := &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:        &http.Client{Timeout: cfg.HTTPTimeout},
		tokens:            &core.StaticTokenProvider{},
		logger:            &core.NoOpLogger{},
		telemetry:         &core.NoOpTelemetry{},
		cfg:               cfg,
		netFailures:       make(map[string]*failureRecord),
		newIdempotencyKey: idgen,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// requestOptions controls one round-trip through the engine.
type requestOptions struct {
	// operation is the logical endpoint name used for logging, metrics
	// and failure tracking (e.g. "cart.add_item")
	operation string

	// retryAuth permits the single refresh-and-retry after a 401
	retryAuth bool

	// cartShaped endpoints resolve empty or malformed bodies to the
	// empty-cart default instead of failing
	cartShaped bool

	// idempotencyKey is attached as a header when non-empty
	idempotencyKey string
}

// do marshals the body and runs one request. It returns the decoded JSON
// payload (map or slice), or nil for an empty response body.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, opts requestOptions) (interface{}, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s request: %w", opts.operation, err)
		}
	}
	return c.execute(ctx, method, path, bodyBytes, opts)
}

func (c *Client) execute(ctx context.Context, method, path string, bodyBytes []byte, opts requestOptions) (interface{}, error) {
	op := opts.operation
	if op == "" {
		op = method + " " + path
	}

	ctx, span := c.telemetry.StartSpan(ctx, "api."+op)
	defer span.End()
	span.SetAttribute("http.method", method)
	span.SetAttribute("http.path", path)

	var reader io.Reader
	if bodyBytes != nil {
		reader = bytes.NewReader(bodyBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}

	token, tokenErr := c.tokens.AccessToken(ctx)
	if tokenErr != nil {
		// Proceed unauthenticated; public endpoints still work
		c.logger.Debug("Token provider returned an error, sending request unauthenticated", map[string]interface{}{
			"operation":  op,
			"request_id": requestID,
			"error":      tokenErr.Error(),
		})
		token = ""
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		sentinel := classifyTransportError(err)
		c.recordNetworkFailure(op, err, sentinel)
		span.RecordError(err)
		return nil, &core.APIError{
			Op:      op,
			Message: err.Error(),
			Err:     sentinel,
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordNetworkFailure(op, err, core.ErrNetworkFailure)
		span.RecordError(err)
		return nil, &core.APIError{
			Op:      op,
			Message: "reading response body: " + err.Error(),
			Err:     core.ErrNetworkFailure,
		}
	}

	c.clearNetworkFailures(op)
	span.SetAttribute("http.status_code", resp.StatusCode)
	if c.metrics != nil {
		c.metrics.ObserveRequest(op, resp.StatusCode, time.Since(start))
	}

	// Exactly one refresh-and-retry after a 401, and only when the
	// original request carried a token. retryAuth=false on the retry
	// prevents a refresh loop.
	if resp.StatusCode == http.StatusUnauthorized && opts.retryAuth && token != "" {
		refreshed, refreshErr := c.tokens.RefreshAccessToken(ctx)
		if c.metrics != nil {
			c.metrics.RecordAuthRefresh()
		}
		if refreshErr == nil && refreshed != "" && refreshed != token {
			c.logger.Debug("Retrying request after token refresh", map[string]interface{}{
				"operation":  op,
				"request_id": requestID,
			})
			opts.retryAuth = false
			return c.execute(ctx, method, path, bodyBytes, opts)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, details := extractErrorMessage(respBody, resp.StatusCode)
		apiErr := core.NewAPIError(op, resp.StatusCode, message, string(respBody), details)
		c.logHTTPError(apiErr, requestID)
		span.RecordError(apiErr)
		return nil, apiErr
	}

	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) == 0 {
		// Some mutation endpoints reply 204/empty; callers get nil and
		// cart-shaped callers resolve it to the empty cart
		return nil, nil
	}

	var payload interface{}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		if opts.cartShaped {
			c.logger.Debug("Malformed cart response treated as empty cart", map[string]interface{}{
				"operation":  op,
				"request_id": requestID,
				"error":      err.Error(),
			})
			return nil, nil
		}
		span.RecordError(err)
		return nil, &core.APIError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("malformed JSON in %s response: %v", op, err),
			Body:    string(respBody),
			Err:     core.ErrMalformedResponse,
		}
	}
	return payload, nil
}

// cartRequest runs a cart-returning operation and resolves the ambiguous
// response shape exactly once.
func (c *Client) cartRequest(ctx context.Context, method, path string, body interface{}, operation string) (normalize.CartResult, error) {
	payload, err := c.do(ctx, method, path, body, requestOptions{
		operation:  operation,
		retryAuth:  true,
		cartShaped: true,
	})
	if err != nil {
		return normalize.EmptyCartResult(), err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.ResolveCart(raw), nil
}

// extractErrorMessage pulls a human-readable message out of an error
// payload: message, error, msg, error_description, in that order. Array
// values are joined with ", "; when no known field is present the whole
// payload is used; a blank payload degrades to "API Error: <status>".
func extractErrorMessage(body []byte, status int) (string, map[string]interface{}) {
	fallback := fmt.Sprintf("API Error: %d", status)

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fallback, nil
	}

	var details map[string]interface{}
	if err := json.Unmarshal(trimmed, &details); err != nil {
		return string(trimmed), nil
	}

	for _, key := range []string{"message", "error", "msg", "error_description"} {
		v, ok := details[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val, details
			}
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, entry := range val {
				parts = append(parts, fmt.Sprintf("%v", entry))
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", "), details
			}
		case map[string]interface{}:
			// NestJS-style {"error": {"message": ...}}
			if nested, _ := extractErrorMessage(mustMarshal(val), status); nested != fallback {
				return nested, details
			}
		}
	}

	return string(trimmed), details
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// logHTTPError logs expected failures (validation, conflicts, role
// denials) at debug and everything else at error. Classification is an
// observability concern only; the error propagates either way.
func (c *Client) logHTTPError(apiErr *core.APIError, requestID string) {
	fields := map[string]interface{}{
		"operation":   apiErr.Op,
		"status_code": apiErr.Status,
		"request_id":  requestID,
		"message":     apiErr.Message,
	}
	if core.IsExpected(apiErr) {
		c.logger.Debug("API request failed with expected error", fields)
		return
	}
	c.logger.Error("API request failed", fields)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrRequestTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.ErrRequestTimeout
	}
	return core.ErrNetworkFailure
}

// recordNetworkFailure counts consecutive transport failures per
// operation and throttles the error log with a growing window so a dead
// network does not flood the log. The counter never changes retry
// behavior; the caller decides whether to retry.
func (c *Client) recordNetworkFailure(operation string, err error, sentinel error) {
	now := time.Now()

	c.failMu.Lock()
	rec, ok := c.netFailures[operation]
	if !ok {
		rec = &failureRecord{}
		c.netFailures[operation] = rec
	}
	rec.count++
	rec.lastError = now
	shouldLog := rec.count == 1 || now.Sub(rec.lastLogged) >= logThrottleWindow(rec.count)
	if shouldLog {
		rec.lastLogged = now
	}
	count := rec.count
	c.failMu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordNetworkFailure(operation)
	}
	if shouldLog {
		c.logger.Error("Request failed before a response was received", map[string]interface{}{
			"operation":            operation,
			"error":                err.Error(),
			"classification":       sentinel.Error(),
			"consecutive_failures": count,
		})
	}
}

func (c *Client) clearNetworkFailures(operation string) {
	c.failMu.Lock()
	delete(c.netFailures, operation)
	c.failMu.Unlock()
}

// logThrottleWindow doubles from one second up to a minute as failures
// accumulate.
func logThrottleWindow(count int) time.Duration {
	shift := count - 1
	if shift > 6 {
		shift = 6
	}
	return time.Second << uint(shift)
}
