package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Transport errors
	ErrNetworkFailure = errors.New("network failure")
	ErrRequestTimeout = errors.New("request timeout")

	// HTTP errors worth special-casing by callers
	ErrSessionExpired = errors.New("session expired")
	ErrForbidden      = errors.New("forbidden")
	ErrCartConflict   = errors.New("cart conflict")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")

	// Payload errors
	ErrMalformedResponse = errors.New("malformed response")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")
)

// APIError provides structured error information for a failed request.
// It implements the error interface and supports error wrapping.
type APIError struct {
	Op      string                 // Operation that failed (e.g., "cart.add_item")
	Status  int                    // HTTP status code, 0 for transport failures
	Message string                 // Human-readable message extracted from the payload
	Code    string                 // Backend error code when present
	Body    string                 // Raw response body for diagnostics
	Details map[string]interface{} // Decoded payload when it was a JSON object
	Err     error                  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *APIError) Error() string {
	if e.Message != "" {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s", e.Op, e.Message)
		}
		return e.Message
	}
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %v", e.Op, e.Err)
		}
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: API Error: %d", e.Op, e.Status)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates an APIError for an HTTP status, wiring the matching
// sentinel so callers can branch with errors.Is.
func NewAPIError(op string, status int, message string, body string, details map[string]interface{}) *APIError {
	return &APIError{
		Op:      op,
		Status:  status,
		Message: message,
		Body:    body,
		Details: details,
		Err:     sentinelForStatus(status),
	}
}

func sentinelForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrSessionExpired
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusConflict:
		return ErrCartConflict
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrValidation
	default:
		return nil
	}
}

// HTTPStatus extracts the HTTP status from an error chain, 0 if absent.
func HTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsExpected reports whether an error belongs to the "expected" class:
// validation failures, cart conflicts and role-based denials. These are
// logged at reduced severity but still propagate to the caller.
func IsExpected(err error) bool {
	switch HTTPStatus(err) {
	case http.StatusBadRequest, http.StatusConflict, http.StatusForbidden:
		return true
	}
	return false
}

// IsCartConflict checks for the 409 cross-store cart conflict that callers
// resolve by retrying with the replace-cart flag.
func IsCartConflict(err error) bool {
	return errors.Is(err, ErrCartConflict)
}

// IsNetworkError checks if an error happened before any HTTP response
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetworkFailure) || errors.Is(err, ErrRequestTimeout)
}

// IsTimeout checks if an error represents a timed-out request
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRequestTimeout)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}
