package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
)

// StoreInput carries the canonical fields for creating or updating a
// store. Write endpoints expect the Portuguese dialect.
type StoreInput struct {
	Name        string
	Description string
	Address     string
	City        string
	Phone       string
	OpeningTime string
	ClosingTime string
	LogoURL     string
}

func (in StoreInput) requestBody() map[string]interface{} {
	return map[string]interface{}{
		"nome":               in.Name,
		"descricao":          in.Description,
		"endereco":           in.Address,
		"cidade":             in.City,
		"telefone":           in.Phone,
		"horario_abertura":   in.OpeningTime,
		"horario_fechamento": in.ClosingTime,
		"logo_url":           in.LogoURL,
	}
}

// GetStore fetches a store's public profile.
func (c *Client) GetStore(ctx context.Context, storeID string) (core.Store, error) {
	if storeID == "" {
		return core.Store{}, fmt.Errorf("%w: store id is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodGet, "/stores/"+url.PathEscape(storeID), nil, requestOptions{
		operation: "stores.get",
		retryAuth: true,
	})
	if err != nil {
		return core.Store{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Store(raw), nil
}

// GetMyStore fetches the authenticated merchant's store.
func (c *Client) GetMyStore(ctx context.Context) (core.Store, error) {
	payload, err := c.do(ctx, http.MethodGet, "/me/store", nil, requestOptions{
		operation: "stores.mine",
		retryAuth: true,
	})
	if err != nil {
		return core.Store{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Store(raw), nil
}

// CreateStore opens a store for the authenticated merchant. The backend
// enforces the one-free-store limit and answers 403 when a non-premium
// merchant already owns one; the client only surfaces that error.
func (c *Client) CreateStore(ctx context.Context, input StoreInput) (core.Store, error) {
	if input.Name == "" {
		return core.Store{}, fmt.Errorf("%w: store name is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodPost, "/me/store", input.requestBody(), requestOptions{
		operation: "stores.create",
		retryAuth: true,
	})
	if err != nil {
		return core.Store{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Store(raw), nil
}

// UpdateStore updates the merchant's store profile.
func (c *Client) UpdateStore(ctx context.Context, input StoreInput) (core.Store, error) {
	payload, err := c.do(ctx, http.MethodPut, "/me/store", input.requestBody(), requestOptions{
		operation: "stores.update",
		retryAuth: true,
	})
	if err != nil {
		return core.Store{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Store(raw), nil
}
