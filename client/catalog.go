package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
)

// BatchFilters narrows a public batch listing. Zero values are omitted
// from the query string.
type BatchFilters struct {
	Category string
	City     string
	Search   string
	StoreID  string
	Limit    int
	Offset   int
}

func (f BatchFilters) query() string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.StoreID != "" {
		q.Set("store_id", f.StoreID)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// GetPublicBatches lists active batches for the customer catalog. Every
// element passes through the batch normalizer individually.
func (c *Client) GetPublicBatches(ctx context.Context, filters BatchFilters) ([]core.Batch, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListingTimeout)
	defer cancel()

	payload, err := c.do(ctx, http.MethodGet, "/public/batches"+filters.query(), nil, requestOptions{
		operation: "batches.public_list",
		retryAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return normalize.BatchList(payload), nil
}

// GetBatch fetches one batch by id.
func (c *Client) GetBatch(ctx context.Context, batchID string) (core.Batch, error) {
	if batchID == "" {
		return core.Batch{}, fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodGet, "/public/batches/"+url.PathEscape(batchID), nil, requestOptions{
		operation: "batches.get",
		retryAuth: true,
	})
	if err != nil {
		return core.Batch{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Batch(raw), nil
}

// GetStoreBatches lists a store's batches, merchant view included.
func (c *Client) GetStoreBatches(ctx context.Context, storeID string) ([]core.Batch, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: store id is required", core.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListingTimeout)
	defer cancel()

	payload, err := c.do(ctx, http.MethodGet, "/stores/"+url.PathEscape(storeID)+"/batches", nil, requestOptions{
		operation: "batches.store_list",
		retryAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return normalize.BatchList(payload), nil
}

// BatchInput carries the canonical fields for creating or updating a
// batch. The write endpoints only accept the Portuguese dialect, so the
// request body is translated; responses still normalize from either.
type BatchInput struct {
	ProductID      string
	OriginalPrice  float64
	PromoPrice     float64
	ExpirationDate string
	Stock          int
	Active         bool
}

func (in BatchInput) requestBody() map[string]interface{} {
	return map[string]interface{}{
		"produto_id":        in.ProductID,
		"preco_original":    in.OriginalPrice,
		"preco_promocional": in.PromoPrice,
		"data_validade":     in.ExpirationDate,
		"estoque_total":     in.Stock,
		"ativo":             in.Active,
	}
}

// CreateBatch publishes a new batch for the merchant's store.
func (c *Client) CreateBatch(ctx context.Context, input BatchInput) (core.Batch, error) {
	if input.ProductID == "" {
		return core.Batch{}, fmt.Errorf("%w: product id is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodPost, "/me/batches", input.requestBody(), requestOptions{
		operation: "batches.create",
		retryAuth: true,
	})
	if err != nil {
		return core.Batch{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Batch(raw), nil
}

// UpdateBatch updates an existing batch.
func (c *Client) UpdateBatch(ctx context.Context, batchID string, input BatchInput) (core.Batch, error) {
	if batchID == "" {
		return core.Batch{}, fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}
	payload, err := c.do(ctx, http.MethodPut, "/me/batches/"+url.PathEscape(batchID), input.requestBody(), requestOptions{
		operation: "batches.update",
		retryAuth: true,
	})
	if err != nil {
		return core.Batch{}, err
	}
	raw, _ := payload.(map[string]interface{})
	return normalize.Batch(raw), nil
}

// DeleteBatch removes a batch from sale.
func (c *Client) DeleteBatch(ctx context.Context, batchID string) error {
	if batchID == "" {
		return fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}
	_, err := c.do(ctx, http.MethodDelete, "/me/batches/"+url.PathEscape(batchID), nil, requestOptions{
		operation: "batches.delete",
		retryAuth: true,
	})
	return err
}
