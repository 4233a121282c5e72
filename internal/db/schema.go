package db

import (
	"database/sql"
	"fmt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    name  VARCHAR(200) NOT NULL,
    price REAL NOT NULL,
    image VARCHAR(500)
);

CREATE INDEX IF NOT EXISTS idx_items_price ON items(price);
`

// MySQL rejects multiple statements per Exec unless multiStatements is set,
// so its schema is a list.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS items (
    id    BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    name  VARCHAR(200) NOT NULL,
    price DOUBLE NOT NULL,
    image VARCHAR(500) NULL,
    INDEX idx_items_price (price)
) DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the items table and indexes if they don't already exist.
func EnsureSchema(db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverSQLite:
		statements = []string{sqliteSchema}
	case DriverMySQL:
		statements = mysqlSchema
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
