package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Pragmas go in the DSN so they apply to every pooled connection, not just
// the one that happens to run an Exec. Foreign keys must be on for item
// deletion to cascade to images and requests.
const pragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=synchronous(NORMAL)"

// Open opens a SQLite database at the given path with pragmas configured.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}
