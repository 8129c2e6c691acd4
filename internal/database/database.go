// Package database manages the SQLite database used for status history.
// It opens the database, enables WAL mode, and runs all schema migrations.
package database

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultRetention bounds how long history rows are kept.
const DefaultRetention = 7 * 24 * time.Hour

// Open opens (or creates) the SQLite database at path and runs all migrations.
// Use ":memory:" for an in-memory database (useful in tests).
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single connection: the poller and handlers share one writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// migrate executes the schema DDL. All statements are idempotent.
func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Cleanup prunes rows older than retention. A non-positive retention uses
// DefaultRetention.
func Cleanup(db *sql.DB, retention time.Duration) (int64, error) {
	return cleanupBefore(db, time.Now().UTC(), retention)
}

func cleanupBefore(db *sql.DB, now time.Time, retention time.Duration) (int64, error) {
	if db == nil {
		return 0, errors.New("database handle is required")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	cutoff := now.Add(-retention).Unix()
	var total int64
	for _, table := range []string{"status_events", "panel_actions"} {
		res, err := db.Exec(`DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
