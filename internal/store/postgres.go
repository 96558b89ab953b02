package store

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewPostgresStore opens a PostgreSQL connection and runs migrations.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := openPostgres(dsn)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db, dialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLStore(db, dialectPostgres), nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}
