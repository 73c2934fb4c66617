// Package db is the SQLite storage layer for trace data: raw execution
// records, derived overlap metrics, the active-count timeline, and the
// normalized SQL index. Schema changes go through embedded migrations.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB handle for the trace database.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the trace database at path and applies the
// connection pragmas. It does not touch the schema; run MigrateUp for that.
func Open(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := handle.Exec(pragma); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &DB{handle}, nil
}
