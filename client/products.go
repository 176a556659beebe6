package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
)

// ProductInput carries the canonical fields for creating or updating a
// product. Write endpoints expect the Portuguese dialect.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	PhotoURL    string
	PhotoURL2   string
	BasePrice   float64
}

func (in ProductInput) requestBody() map[string]interface{} {
	return map[string]interface{}{
		"nome":       in.Name,
		"descricao":  in.Description,
		"categoria":  in.Category,
		"foto_url":   in.PhotoURL,
		"foto_url_2": in.PhotoURL2,
		"preco":      in.BasePrice,
	}
}

// GetStoreProducts lists a store's products.
func (c *Client) GetStoreProducts(ctx context.Context, storeID string) ([]core.Product, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: store id is required", core.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListingTimeout)
	defer cancel()

	payload, err := c.do(ctx, http.MethodGet, "/stores/"+url.PathEscape(storeID)+"/products", nil, requestOptions{
		operation: "products.store_list",
		retryAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return normalize.ProductList(payload), nil
}

// CreateProduct registers a product in the merchant's store.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (core.Product, error) {
	if input.Name == "" {
		return core.Product{}, fmt.Errorf("%w: product name is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodPost, "/me/products", input.requestBody(), requestOptions{
		operation: "products.create",
		retryAuth: true,
	})
	if err != nil {
		return core.Product{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Product(raw), nil
}

// UpdateProduct updates an existing product.
func (c *Client) UpdateProduct(ctx context.Context, productID string, input ProductInput) (core.Product, error) {
	if productID == "" {
		return core.Product{}, fmt.Errorf("%w: product id is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodPut, "/me/products/"+url.PathEscape(productID), input.requestBody(), requestOptions{
		operation: "products.update",
		retryAuth: true,
	})
	if err != nil {
		return core.Product{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Product(raw), nil
}

// DeleteProduct removes a product and its batches from the store.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("%w: product id is required", core.ErrValidation)
	}
	_, err := c.do(ctx, http.MethodDelete, "/me/products/"+url.PathEscape(productID), nil, requestOptions{
		operation: "products.delete",
		retryAuth: true,
	})
	return err
}
