package store

import (
	"fmt"

	"github.com/vyrodovalexey/item-catalog/internal/db"
)

// DriverMemory selects the in-memory store.
const DriverMemory = "memory"

// Open builds the Store selected by driver. SQL drivers get their schema
// ensured before the store is returned. The caller closes the result when it
// implements io.Closer.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case db.DriverSQLite, db.DriverMySQL:
		conn, err := db.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", driver, err)
		}

		if err := db.EnsureSchema(conn, driver); err != nil {
			conn.Close()
			return nil, fmt.Errorf("preparing %s store: %w: %w", driver, ErrUnavailable, err)
		}

		return NewSQLStore(conn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
