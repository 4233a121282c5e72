package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/item-catalog/internal/db"
	"github.com/vyrodovalexey/item-catalog/internal/model"
)

func strPtr(s string) *string { return &s }

// seedCatalog stores a fixed set of items and returns them with assigned IDs.
func seedCatalog(t *testing.T, s Store) []model.Item {
	t.Helper()

	ctx := context.Background()
	seed := []model.Item{
		{Name: "Mouse", Price: 1500, Image: strPtr("mouse.png")},
		{Name: "Gaming mouse pad", Price: 3000},
		{Name: "Monitor 27in", Price: 25000},
		{Name: "USB cable", Price: 500},
		{Name: "Keyboard", Price: 5000},
		{Name: "100% cotton mouse cover", Price: 1000},
		{Name: "a_b adapter", Price: -1},
	}

	out := make([]model.Item, 0, len(seed))
	for _, item := range seed {
		saved, err := s.Save(ctx, item)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func names(items []model.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("save assigns id and find returns equal item", func(t *testing.T) {
		s := newStore(t)

		saved, err := s.Save(ctx, model.Item{Name: "Mouse", Price: 1500, Image: strPtr("m.png")})
		require.NoError(t, err)
		require.NotZero(t, saved.ID)

		got, err := s.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		item, ok := got.Get()
		require.True(t, ok)
		if diff := cmp.Diff(saved, item); diff != "" {
			t.Errorf("FindByID mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		s := newStore(t)
		items := seedCatalog(t, s)

		seen := make(map[int64]bool)
		for _, item := range items {
			assert.False(t, seen[item.ID], "duplicate id %d", item.ID)
			seen[item.ID] = true
		}
	})

	t.Run("deleted ids are not reused", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(ctx, model.Item{Name: "Mouse", Price: 1500})
		require.NoError(t, err)
		last, err := s.Save(ctx, model.Item{Name: "Keyboard", Price: 5000})
		require.NoError(t, err)

		require.NoError(t, s.DeleteByID(ctx, last.ID))

		next, err := s.Save(ctx, model.Item{Name: "Monitor", Price: 25000})
		require.NoError(t, err)
		assert.Greater(t, next.ID, last.ID)
	})

	t.Run("find by id absent is not an error", func(t *testing.T) {
		s := newStore(t)

		got, err := s.FindByID(ctx, 424242)
		require.NoError(t, err)
		assert.False(t, got.IsPresent())
	})

	t.Run("save with existing id replaces every field", func(t *testing.T) {
		s := newStore(t)
		saved, err := s.Save(ctx, model.Item{Name: "Mouse", Price: 1500, Image: strPtr("m.png")})
		require.NoError(t, err)

		replaced, err := s.Save(ctx, model.Item{ID: saved.ID, Name: "Trackball", Price: 4200})
		require.NoError(t, err)
		assert.Equal(t, saved.ID, replaced.ID)

		got, err := s.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		item, _ := got.Get()
		assert.Equal(t, "Trackball", item.Name)
		assert.Equal(t, 4200.0, item.Price)
		assert.Nil(t, item.Image, "image should be replaced, not merged")

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("save with unknown id inserts under that id", func(t *testing.T) {
		s := newStore(t)

		saved, err := s.Save(ctx, model.Item{ID: 77, Name: "Speaker", Price: 800})
		require.NoError(t, err)
		assert.Equal(t, int64(77), saved.ID)

		next, err := s.Save(ctx, model.Item{Name: "Webcam", Price: 900})
		require.NoError(t, err)
		assert.NotEqual(t, int64(77), next.ID)
	})

	t.Run("delete removes and is idempotent", func(t *testing.T) {
		s := newStore(t)
		saved, err := s.Save(ctx, model.Item{Name: "Mouse", Price: 1500})
		require.NoError(t, err)

		require.NoError(t, s.DeleteByID(ctx, saved.ID))
		require.NoError(t, s.DeleteByID(ctx, saved.ID))

		got, err := s.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPresent())
	})

	t.Run("find all is ordered by id", func(t *testing.T) {
		s := newStore(t)
		seeded := seedCatalog(t, s)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff(seeded, all); diff != "" {
			t.Errorf("FindAll mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("find all on empty store returns no items", func(t *testing.T) {
		s := newStore(t)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("name contains ignores case", func(t *testing.T) {
		s := newStore(t)
		seedCatalog(t, s)

		for _, needle := range []string{"mou", "MOU", "Mouse", "oUs"} {
			got, err := s.FindByNameContains(ctx, needle)
			require.NoError(t, err)
			assert.Equal(t,
				[]string{"Mouse", "Gaming mouse pad", "100% cotton mouse cover"},
				names(got), "needle %q", needle)
		}
	})

	t.Run("name contains treats like metacharacters literally", func(t *testing.T) {
		s := newStore(t)
		seedCatalog(t, s)

		got, err := s.FindByNameContains(ctx, "0%")
		require.NoError(t, err)
		assert.Equal(t, []string{"100% cotton mouse cover"}, names(got))

		got, err = s.FindByNameContains(ctx, "a_b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a_b adapter"}, names(got))

		got, err = s.FindByNameContains(ctx, "!")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty name needle matches everything", func(t *testing.T) {
		s := newStore(t)
		seeded := seedCatalog(t, s)

		got, err := s.FindByNameContains(ctx, "")
		require.NoError(t, err)
		assert.Len(t, got, len(seeded))
	})

	t.Run("price predicates are inclusive", func(t *testing.T) {
		s := newStore(t)
		seedCatalog(t, s)

		atLeast, err := s.FindByPriceGreaterOrEqual(ctx, 5000)
		require.NoError(t, err)
		assert.Equal(t, []string{"Monitor 27in", "Keyboard"}, names(atLeast))

		atMost, err := s.FindByPriceLessOrEqual(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, []string{"USB cable", "100% cotton mouse cover", "a_b adapter"}, names(atMost))

		between, err := s.FindByPriceBetween(ctx, 1000, 3000)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mouse", "Gaming mouse pad", "100% cotton mouse cover"}, names(between))

		inverted, err := s.FindByPriceBetween(ctx, 3000, 1000)
		require.NoError(t, err)
		assert.Empty(t, inverted)
	})

	t.Run("name and price range", func(t *testing.T) {
		s := newStore(t)
		seedCatalog(t, s)

		got, err := s.FindByNameContainsAndPriceBetween(ctx, "mouse", 1000, 5000)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mouse", "Gaming mouse pad", "100% cotton mouse cover"}, names(got))

		got, err = s.FindByNameContainsAndPriceBetween(ctx, "MOUSE", 1500, 1500)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mouse"}, names(got))
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(*testing.T) Store { return NewMemoryStore() })
}

func TestSQLStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewSQLStore(db.NewTestDB(t)) })
}
