package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vyrodovalexey/item-catalog/internal/model"
	"github.com/vyrodovalexey/item-catalog/internal/optional"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]model.Item
	nextID int64
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[int64]model.Item),
		nextID: 1,
	}
}

// FindAll returns all items from the store.
func (s *MemoryStore) FindAll(ctx context.Context) ([]model.Item, error) {
	return s.filter(ctx, "find all items", func(model.Item) bool { return true })
}

// FindByID retrieves an item by its ID.
func (s *MemoryStore) FindByID(ctx context.Context, id int64) (optional.Option[model.Item], error) {
	if err := checkContext(ctx, "find item"); err != nil {
		return optional.None[model.Item](), err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return optional.None[model.Item](), nil
	}

	return optional.Some(cloneItem(item)), nil
}

// Save inserts or replaces an item.
func (s *MemoryStore) Save(ctx context.Context, item model.Item) (model.Item, error) {
	if err := checkContext(ctx, "save item"); err != nil {
		return model.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == 0 {
		item.ID = s.nextID
	}
	if item.ID >= s.nextID {
		s.nextID = item.ID + 1
	}

	stored := cloneItem(item)
	s.items[stored.ID] = stored

	return cloneItem(stored), nil
}

// DeleteByID removes an item from the store by its ID.
func (s *MemoryStore) DeleteByID(ctx context.Context, id int64) error {
	if err := checkContext(ctx, "delete item"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)

	return nil
}

// FindByNameContains returns items whose name contains substr, ignoring case.
func (s *MemoryStore) FindByNameContains(ctx context.Context, substr string) ([]model.Item, error) {
	needle := strings.ToLower(substr)
	return s.filter(ctx, "find items by name", func(item model.Item) bool {
		return nameContains(item, needle)
	})
}

// FindByPriceGreaterOrEqual returns items priced at or above minPrice.
func (s *MemoryStore) FindByPriceGreaterOrEqual(ctx context.Context, minPrice float64) ([]model.Item, error) {
	return s.filter(ctx, "find items by min price", func(item model.Item) bool {
		return item.Price >= minPrice
	})
}

// FindByPriceLessOrEqual returns items priced at or below maxPrice.
func (s *MemoryStore) FindByPriceLessOrEqual(ctx context.Context, maxPrice float64) ([]model.Item, error) {
	return s.filter(ctx, "find items by max price", func(item model.Item) bool {
		return item.Price <= maxPrice
	})
}

// FindByPriceBetween returns items priced within [minPrice, maxPrice].
func (s *MemoryStore) FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]model.Item, error) {
	return s.filter(ctx, "find items by price range", func(item model.Item) bool {
		return item.Price >= minPrice && item.Price <= maxPrice
	})
}

// FindByNameContainsAndPriceBetween combines the name and price range predicates.
func (s *MemoryStore) FindByNameContainsAndPriceBetween(
	ctx context.Context, substr string, minPrice, maxPrice float64,
) ([]model.Item, error) {
	needle := strings.ToLower(substr)
	return s.filter(ctx, "find items by name and price range", func(item model.Item) bool {
		return nameContains(item, needle) && item.Price >= minPrice && item.Price <= maxPrice
	})
}

// filter returns the items accepted by match, ordered by ID.
func (s *MemoryStore) filter(ctx context.Context, op string, match func(model.Item) bool) ([]model.Item, error) {
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		if match(item) {
			items = append(items, cloneItem(item))
		}
	}

	slices.SortFunc(items, func(a, b model.Item) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return items, nil
}

func checkContext(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func nameContains(item model.Item, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(item.Name), lowerNeedle)
}

// cloneItem copies the item so callers never share the image pointer with the store.
func cloneItem(item model.Item) model.Item {
	if item.Image != nil {
		image := *item.Image
		item.Image = &image
	}
	return item
}
