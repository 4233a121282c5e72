// Package service implements the item catalog on top of the storage port.
package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/model"
	"github.com/vyrodovalexey/item-catalog/internal/optional"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

var searchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_search_total",
		Help: "Total number of catalog searches by dispatched strategy",
	},
	[]string{"strategy"},
)

// Catalog is the item catalog consumed by the HTTP handler and the CLI.
type Catalog interface {
	List(ctx context.Context) ([]model.Item, error)
	GetByID(ctx context.Context, id int64) (optional.Option[model.Item], error)
	Create(ctx context.Context, item model.Item) (model.Item, error)
	Update(ctx context.Context, id int64, item model.Item) (model.Item, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter SearchFilter) ([]model.Item, error)
}

// CatalogService delegates item lifecycle operations to a store and picks
// exactly one store lookup per search. It holds no mutable state.
type CatalogService struct {
	store  store.Store
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService backed by s.
func NewCatalogService(s store.Store, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		store:  s,
		logger: logger,
	}
}

// List returns every item.
func (c *CatalogService) List(ctx context.Context) ([]model.Item, error) {
	return c.store.FindAll(ctx)
}

// GetByID returns the item with the given ID, or None when it does not exist.
func (c *CatalogService) GetByID(ctx context.Context, id int64) (optional.Option[model.Item], error) {
	return c.store.FindByID(ctx, id)
}

// Create stores a new item. Any ID on the input is discarded so that storage
// assigns one.
func (c *CatalogService) Create(ctx context.Context, item model.Item) (model.Item, error) {
	item.ID = 0
	return c.store.Save(ctx, item)
}

// Update replaces the item stored under id. The ID carried by item is
// overwritten with id before saving. Existence is not checked here; callers
// probe with GetByID first.
func (c *CatalogService) Update(ctx context.Context, id int64, item model.Item) (model.Item, error) {
	item.ID = id
	return c.store.Save(ctx, item)
}

// Delete removes the item stored under id. Existence is not checked here.
func (c *CatalogService) Delete(ctx context.Context, id int64) error {
	return c.store.DeleteByID(ctx, id)
}

// Search runs the single store lookup selected by SelectStrategy.
func (c *CatalogService) Search(ctx context.Context, filter SearchFilter) ([]model.Item, error) {
	strategy := SelectStrategy(filter)
	searchTotal.WithLabelValues(strategy.String()).Inc()
	c.logger.Debug("searching items", zap.Stringer("strategy", strategy))

	name, _ := filter.Name.Get()
	minPrice, _ := filter.MinPrice.Get()
	maxPrice, _ := filter.MaxPrice.Get()

	switch strategy {
	case StrategyNameAndPriceBetween:
		return c.store.FindByNameContainsAndPriceBetween(ctx, name, minPrice, maxPrice)
	case StrategyNameContains:
		return c.store.FindByNameContains(ctx, name)
	case StrategyPriceBetween:
		return c.store.FindByPriceBetween(ctx, minPrice, maxPrice)
	case StrategyPriceAtLeast:
		return c.store.FindByPriceGreaterOrEqual(ctx, minPrice)
	case StrategyPriceAtMost:
		return c.store.FindByPriceLessOrEqual(ctx, maxPrice)
	case StrategyUnsupportedCombination:
		c.logger.Warn("name combined with a single price bound is not supported, returning all items",
			zap.Stringer("filter", filter),
		)
		return c.store.FindAll(ctx)
	default:
		return c.store.FindAll(ctx)
	}
}
