package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vyrodovalexey/item-catalog/internal/model"
	"github.com/vyrodovalexey/item-catalog/internal/optional"
)

const selectItems = `SELECT id, name, price, image FROM items`

// likeEscape is accepted by both SQLite and MySQL without further quoting.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// SQLStore implements Store on top of database/sql. It works with the
// sqlite and mysql drivers opened by package db.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a SQLStore over an open database with the schema applied.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// FindAll returns all items ordered by ID.
func (s *SQLStore) FindAll(ctx context.Context) ([]model.Item, error) {
	return s.query(ctx, "finding all items", selectItems+` ORDER BY id`)
}

// FindByID retrieves an item by its ID.
func (s *SQLStore) FindByID(ctx context.Context, id int64) (optional.Option[model.Item], error) {
	row := s.db.QueryRowContext(ctx, selectItems+` WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return optional.None[model.Item](), nil
	}
	if err != nil {
		return optional.None[model.Item](), unavailable("finding item", err)
	}

	return optional.Some(item), nil
}

// Save inserts the item when ID is zero, otherwise replaces the row with that
// ID, inserting it when no such row exists.
func (s *SQLStore) Save(ctx context.Context, item model.Item) (model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Item{}, unavailable("beginning save", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	saved, err := saveTx(ctx, tx, item)
	if err != nil {
		return model.Item{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Item{}, unavailable("committing save", err)
	}

	return saved, nil
}

func saveTx(ctx context.Context, tx *sql.Tx, item model.Item) (model.Item, error) {
	image := nullString(item.Image)

	if item.ID == 0 {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO items (name, price, image) VALUES (?, ?, ?)`,
			item.Name, item.Price, image,
		)
		if err != nil {
			return model.Item{}, unavailable("inserting item", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return model.Item{}, unavailable("getting item id", err)
		}
		item.ID = id
		return item, nil
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, item.ID).Scan(&count); err != nil {
		return model.Item{}, unavailable("checking item existence", err)
	}

	if count > 0 {
		_, err := tx.ExecContext(ctx,
			`UPDATE items SET name = ?, price = ?, image = ? WHERE id = ?`,
			item.Name, item.Price, image, item.ID,
		)
		if err != nil {
			return model.Item{}, unavailable("updating item", err)
		}
		return item, nil
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO items (id, name, price, image) VALUES (?, ?, ?, ?)`,
		item.ID, item.Name, item.Price, image,
	)
	if err != nil {
		return model.Item{}, unavailable("inserting item", err)
	}
	return item, nil
}

// DeleteByID removes the item with the given ID if present.
func (s *SQLStore) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return unavailable("deleting item", err)
	}
	return nil
}

// FindByNameContains returns items whose name contains substr, ignoring case.
func (s *SQLStore) FindByNameContains(ctx context.Context, substr string) ([]model.Item, error) {
	return s.query(ctx, "finding items by name",
		selectItems+` WHERE LOWER(name) LIKE ? ESCAPE '!' ORDER BY id`,
		likePattern(substr),
	)
}

// FindByPriceGreaterOrEqual returns items priced at or above minPrice.
func (s *SQLStore) FindByPriceGreaterOrEqual(ctx context.Context, minPrice float64) ([]model.Item, error) {
	return s.query(ctx, "finding items by min price",
		selectItems+` WHERE price >= ? ORDER BY id`, minPrice,
	)
}

// FindByPriceLessOrEqual returns items priced at or below maxPrice.
func (s *SQLStore) FindByPriceLessOrEqual(ctx context.Context, maxPrice float64) ([]model.Item, error) {
	return s.query(ctx, "finding items by max price",
		selectItems+` WHERE price <= ? ORDER BY id`, maxPrice,
	)
}

// FindByPriceBetween returns items priced within [minPrice, maxPrice].
func (s *SQLStore) FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]model.Item, error) {
	return s.query(ctx, "finding items by price range",
		selectItems+` WHERE price BETWEEN ? AND ? ORDER BY id`, minPrice, maxPrice,
	)
}

// FindByNameContainsAndPriceBetween combines the name and price range predicates.
func (s *SQLStore) FindByNameContainsAndPriceBetween(
	ctx context.Context, substr string, minPrice, maxPrice float64,
) ([]model.Item, error) {
	return s.query(ctx, "finding items by name and price range",
		selectItems+` WHERE LOWER(name) LIKE ? ESCAPE '!' AND price BETWEEN ? AND ? ORDER BY id`,
		likePattern(substr), minPrice, maxPrice,
	)
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("pinging database", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) query(ctx context.Context, op, query string, args ...any) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, unavailable("scanning item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (model.Item, error) {
	var item model.Item
	var image sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Price, &image); err != nil {
		return model.Item{}, err
	}
	if image.Valid {
		item.Image = &image.String
	}
	return item, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func likePattern(substr string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(substr)) + "%"
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
