package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vencebem/vencebem-go/core"
	"github.com/vencebem/vencebem-go/normalize"
	"github.com/vencebem/vencebem-go/resilience"
)

// GetFavorites lists the customer's favorite batches. The fetch races a
// short deadline and degrades to an empty list on timeout so the
// favorites screen renders instead of hanging; real API errors still
// propagate.
func (c *Client) GetFavorites(ctx context.Context) ([]core.Batch, error) {
	batches, err := resilience.RaceTimeout(ctx, c.cfg.FavoritesTimeout, []core.Batch{}, func() ([]core.Batch, error) {
		payload, err := c.do(context.Background(), http.MethodGet, "/me/favorites", nil, requestOptions{
			operation: "favorites.list",
			retryAuth: true,
		})
		if err != nil {
			return nil, err
		}
		return normalize.BatchList(payload), nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Favorites fetch timed out, returning empty list", map[string]interface{}{
				"operation":  "favorites.list",
				"timeout_ms": c.cfg.FavoritesTimeout.Milliseconds(),
			})
			return []core.Batch{}, nil
		}
		return nil, err
	}
	return batches, nil
}

// AddFavorite marks a batch as favorite.
func (c *Client) AddFavorite(ctx context.Context, batchID string) error {
	if batchID == "" {
		return fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}
	_, err := c.do(ctx, http.MethodPost, "/me/favorites", map[string]interface{}{"batch_id": batchID}, requestOptions{
		operation: "favorites.add",
		retryAuth: true,
	})
	return err
}

// RemoveFavorite unmarks a favorite batch.
func (c *Client) RemoveFavorite(ctx context.Context, batchID string) error {
	if batchID == "" {
		return fmt.Errorf("%w: batch id is required", core.ErrValidation)
	}
	_, err := c.do(ctx, http.MethodDelete, "/me/favorites/"+url.PathEscape(batchID), nil, requestOptions{
		operation: "favorites.remove",
		retryAuth: true,
	})
	return err
}
