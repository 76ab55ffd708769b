// Package database opens the SQLite database backing the game.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	// DriverLibSQL is the libSQL driver used in production.
	DriverLibSQL = "libsql"
	// DriverSQLite is the pure Go driver. It needs no cgo, which keeps
	// tests and cross compiled builds simple.
	DriverSQLite = "sqlite"
)

// Open creates a SQLite connection with the given driver and configures it:
// WAL journal mode, 5 s busy timeout, foreign keys enabled.
//
// The pool is limited to one connection. SQLite has a single writer anyway,
// PRAGMAs are per connection and an in-memory database only exists on the
// connection that created it. Code running inside a transaction must
// therefore never go back to the *sql.DB.
func Open(ctx context.Context, driver, path string) (*sql.DB, error) {
	var dsn string
	switch driver {
	case DriverLibSQL, "":
		driver, dsn = DriverLibSQL, "file:"+path
	case DriverSQLite:
		dsn = path
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// libSQL rejects Exec for PRAGMAs that return rows, but some PRAGMAs
	// (like foreign_keys=ON) return nothing. Use QueryContext and drain rows
	// to handle both cases uniformly.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
