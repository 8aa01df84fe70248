package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{
	// Migration 1: seed the fixed category rows. Earlier revisions stored a
	// free-text category string on items; that scheme is superseded by the
	// categories table.
	`INSERT OR IGNORE INTO categories (slug, name) VALUES
	     ('books', 'Books'),
	     ('furniture', 'Furniture'),
	     ('electronics', 'Electronics'),
	     ('clothing', 'Clothing'),
	     ('others', 'Others')`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
