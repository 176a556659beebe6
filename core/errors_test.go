package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIErrorSentinelWiring(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, ErrSessionExpired},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusConflict, ErrCartConflict},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidation},
	}

	for _, tt := range tests {
		err := NewAPIError("cart.add_item", tt.status, "nope", "", nil)
		assert.True(t, errors.Is(err, tt.sentinel), "status %d", tt.status)
		assert.Equal(t, tt.status, HTTPStatus(err))
	}

	// Unmapped statuses carry no sentinel but keep the status
	err := NewAPIError("cart.add_item", http.StatusInternalServerError, "boom", "", nil)
	assert.Nil(t, errors.Unwrap(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestAPIErrorMessage(t *testing.T) {
	err := NewAPIError("cart.add_item", 409, "cart holds another store", "", nil)
	assert.Equal(t, "cart.add_item: cart holds another store", err.Error())

	transport := &APIError{Op: "cart.get", Err: ErrNetworkFailure}
	assert.Equal(t, "cart.get: network failure", transport.Error())

	bare := &APIError{Op: "cart.get", Status: 502}
	assert.Equal(t, "cart.get: API Error: 502", bare.Error())
}

func TestIsExpected(t *testing.T) {
	assert.True(t, IsExpected(NewAPIError("op", 400, "", "", nil)))
	assert.True(t, IsExpected(NewAPIError("op", 403, "", "", nil)))
	assert.True(t, IsExpected(NewAPIError("op", 409, "", "", nil)))
	assert.False(t, IsExpected(NewAPIError("op", 404, "", "", nil)))
	assert.False(t, IsExpected(NewAPIError("op", 401, "", "", nil)))
	assert.False(t, IsExpected(NewAPIError("op", 500, "", "", nil)))
	assert.False(t, IsExpected(errors.New("plain")))
}

func TestClassifiersThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading cart: %w", &APIError{Op: "cart.get", Err: ErrRequestTimeout})
	assert.True(t, IsNetworkError(wrapped))
	assert.True(t, IsTimeout(wrapped))
	assert.False(t, IsCartConflict(wrapped))

	conflict := fmt.Errorf("adding item: %w", NewAPIError("cart.add_item", 409, "", "", nil))
	assert.True(t, IsCartConflict(conflict))
	assert.False(t, IsTimeout(conflict))

	cfgErr := fmt.Errorf("startup: %w", ErrMissingConfiguration)
	assert.True(t, IsConfigurationError(cfgErr))
	assert.False(t, IsConfigurationError(conflict))
}

func TestHTTPStatusOnNonAPIError(t *testing.T) {
	assert.Equal(t, 0, HTTPStatus(errors.New("plain")))
	assert.Equal(t, 0, HTTPStatus(nil))
}
