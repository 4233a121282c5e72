// Package store provides the item storage port and its implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/item-catalog/internal/model"
	"github.com/vyrodovalexey/item-catalog/internal/optional"
)

// Store errors.
var (
	// ErrUnavailable wraps every failure of the underlying persistence.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Store defines the interface for item storage operations.
type Store interface {
	// FindAll returns every item, ordered by ID.
	FindAll(ctx context.Context) ([]model.Item, error)

	// FindByID returns the item with the given ID, or None when absent.
	FindByID(ctx context.Context, id int64) (optional.Option[model.Item], error)

	// Save inserts the item when its ID is zero and replaces it otherwise.
	// The persisted value, including any assigned ID, is returned.
	Save(ctx context.Context, item model.Item) (model.Item, error)

	// DeleteByID removes the item if present. Deleting a missing item is not an error.
	DeleteByID(ctx context.Context, id int64) error

	// FindByNameContains matches name substrings case-insensitively.
	FindByNameContains(ctx context.Context, substr string) ([]model.Item, error)

	// FindByPriceGreaterOrEqual returns items with price >= minPrice.
	FindByPriceGreaterOrEqual(ctx context.Context, minPrice float64) ([]model.Item, error)

	// FindByPriceLessOrEqual returns items with price <= maxPrice.
	FindByPriceLessOrEqual(ctx context.Context, maxPrice float64) ([]model.Item, error)

	// FindByPriceBetween returns items with minPrice <= price <= maxPrice.
	FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]model.Item, error)

	// FindByNameContainsAndPriceBetween combines the name and price range predicates.
	FindByNameContainsAndPriceBetween(
		ctx context.Context, substr string, minPrice, maxPrice float64,
	) ([]model.Item, error)
}

// Pinger is implemented by stores backed by a remote resource.
type Pinger interface {
	Ping(ctx context.Context) error
}
