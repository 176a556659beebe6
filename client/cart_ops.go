package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
)

// GetCart fetches the customer's cart. Overlapping calls (screen focus
// racing a badge refresh) share one request via single-flight. A 403 is
// the backend's answer to a non-customer session and is treated as "no
// cart", not as an error; every other failure propagates.
func (c *Client) GetCart(ctx context.Context) (normalize.CartResult, error) {
	val, shared, err := c.flight.Do("cart.get", func() (interface{}, error) {
		return c.fetchCart(ctx)
	})
	if shared {
		c.logger.Debug("Cart fetch shared with in-flight request", map[string]interface{}{
			"operation": "cart.get",
		})
	}
	if err != nil {
		return normalize.EmptyCartResult(), err
	}
	return val.(normalize.CartResult), nil
}

func (c *Client) fetchCart(ctx context.Context) (normalize.CartResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CartReadTimeout)
	defer cancel()

	result, err := c.cartRequest(ctx, http.MethodGet, "/me/cart", nil, "cart.get")
	if err != nil {
		if core.HTTPStatus(err) == http.StatusForbidden {
			c.logger.Debug("Cart fetch returned 403, treating as empty cart", map[string]interface{}{
				"operation": "cart.get",
			})
			return normalize.EmptyCartResult(), nil
		}
		return normalize.EmptyCartResult(), err
	}
	return result, nil
}

// AddToCart adds quantity units of a batch to the cart. When the batch
// belongs to a different store than the current cart the backend answers
// 409 (core.IsCartConflict); the caller resolves it by asking the user
// and retrying with replaceCart=true, which discards the existing cart.
func (c *Client) AddToCart(ctx context.Context, batchID string, quantity int, replaceCart bool) (normalize.CartResult, error) {
	if batchID == "" {
		return normalize.EmptyCartResult(), fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}
	if quantity < 1 {
		return normalize.EmptyCartResult(), fmt.Errorf("%w: quantity must be at least 1", core.ErrValidation)
	}

	body := map[string]interface{}{
		"batch_id": batchID,
		"quantity": quantity,
	}
	if replaceCart {
		body["replace_cart"] = true
	}
	return c.cartRequest(ctx, http.MethodPost, "/me/cart/add-item", body, "cart.add_item")
}

// RemoveFromCart removes a batch from the cart entirely. Sub-carts left
// with no items are dropped from a multi-store result; when nothing
// remains the canonical empty shape is returned.
func (c *Client) RemoveFromCart(ctx context.Context, batchID string) (normalize.CartResult, error) {
	if batchID == "" {
		return normalize.EmptyCartResult(), fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}

	body := map[string]interface{}{"batch_id": batchID}
	result, err := c.cartRequest(ctx, http.MethodPost, "/me/cart/remove-item", body, "cart.remove_item")
	if err != nil {
		return result, err
	}
	return result.DropEmptyCarts(), nil
}

// UpdateCartItemQuantity sets the quantity of a batch already in the
// cart. The backend deletes the item rather than keeping quantity zero,
// so empty sub-carts are filtered here as well.
func (c *Client) UpdateCartItemQuantity(ctx context.Context, batchID string, quantity int) (normalize.CartResult, error) {
	if batchID == "" {
		return normalize.EmptyCartResult(), fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}
	if quantity < 1 {
		return normalize.EmptyCartResult(), fmt.Errorf("%w: quantity must be at least 1, use RemoveFromCart to delete", core.ErrValidation)
	}

	body := map[string]interface{}{"quantity": quantity}
	path := fmt.Sprintf("/me/cart/items/%s/quantity", batchID)
	result, err := c.cartRequest(ctx, http.MethodPut, path, body, "cart.update_quantity")
	if err != nil {
		return result, err
	}
	return result.DropEmptyCarts(), nil
}

// ClearCart discards the customer's cart across all stores.
func (c *Client) ClearCart(ctx context.Context) (normalize.CartResult, error) {
	return c.cartRequest(ctx, http.MethodPost, "/me/cart/clear", nil, "cart.clear")
}

// ReserveCart checks the cart out into an order. The request carries an
// idempotency key so a retry after a network failure cannot create a
// second order for the same cart.
func (c *Client) ReserveCart(ctx context.Context) (core.Order, error) {
	payload, err := c.do(ctx, http.MethodPost, "/me/cart/reserve", nil, requestOptions{
		operation:      "cart.reserve",
		retryAuth:      true,
		idempotencyKey: c.newIdempotencyKey(),
	})
	if err != nil {
		return core.Order{}, err
	}
	raw, _ := payload.(map[string]interface{})
	if nested := rawObject(raw, "order", "pedido"); nested != nil {
		raw = nested
	}
	return normalize.Order(raw), nil
}

func rawObject(raw map[string]interface{}, keys ...string) map[string]interface{} {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if obj, ok := v.(map[string]interface{}); ok {
				return obj
			}
		}
	}
	return nil
}
