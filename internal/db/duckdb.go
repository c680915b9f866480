package db

import (
	"database/sql"
	"fmt"
)

// OpenLocalEngine opens the DuckDB database backing the local compute
// engine. An empty path opens an in-memory database.
func OpenLocalEngine(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}
