// Package sqlite opens SQLite databases and brings their schema up to date.
//
// A schema is a list of migration scripts; script i moves the database to
// version i+1. The first script must create the metadata table that holds
// the current version.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

func NewFromFile(dbfile string, schema []string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbfile), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+dbfile+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if err := upgrade(db, schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewFromMemory(schema []string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := upgrade(db, schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Version reports the schema version recorded in db, zero for a fresh one.
func Version(db *sql.DB) int {
	var version int
	if err := db.QueryRow("SELECT schemaVersion FROM metadata WHERE id = 1").Scan(&version); err != nil {
		return 0
	}
	return version
}

func upgrade(db *sql.DB, schema []string) error {
	for v := Version(db); v < len(schema); v++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(schema[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying schema version %d: %w", v+1, err)
		}
		if _, err := tx.Exec("INSERT OR REPLACE INTO metadata (id, schemaVersion) VALUES (1, ?)", v+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording schema version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
