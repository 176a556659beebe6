package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
)

// GetMyOrders lists the customer's orders, newest first as returned by
// the backend.
func (c *Client) GetMyOrders(ctx context.Context) ([]core.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListingTimeout)
	defer cancel()

	payload, err := c.do(ctx, http.MethodGet, "/me/orders", nil, requestOptions{
		operation: "orders.list",
		retryAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return normalize.OrderList(payload), nil
}

// GetOrder fetches one order with its payment sub-record.
func (c *Client) GetOrder(ctx context.Context, orderID string) (core.Order, error) {
	if orderID == "" {
		return core.Order{}, fmt.Errorf("%w: order id is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodGet, "/me/orders/"+url.PathEscape(orderID), nil, requestOptions{
		operation: "orders.get",
		retryAuth: true,
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
