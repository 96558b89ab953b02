package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// NewSQLiteStore opens a SQLite database, sets file permissions, and runs migrations.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	db, err := openSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db, dialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLStore(db, dialectSQLite), nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if err := os.Chmod(dsn, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, fmt.Errorf("setting file permissions: %w", err)
	}
	return db, nil
}
