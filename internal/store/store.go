package store

import (
	"context"
	"fmt"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

// Store defines the interface for reading storage.
// The SQLite, PostgreSQL and MySQL backends all satisfy it.
type Store interface {
	// SaveReading inserts a single reading and returns its id. The row is
	// stored exactly as given; no upsert, no retry.
	SaveReading(ctx context.Context, r *weather.Reading) (int64, error)

	// GetLatest returns the reading with the greatest timestamp, or nil.
	GetLatest(ctx context.Context) (*weather.Reading, error)

	// GetFirst returns the reading with id 1, or nil.
	GetFirst(ctx context.Context) (*weather.Reading, error)

	// GetAll returns every reading ordered by timestamp.
	GetAll(ctx context.Context) ([]weather.Reading, error)

	// GetReadings returns readings with start <= timestamp <= end, ordered by timestamp.
	GetReadings(ctx context.Context, start, end time.Time) ([]weather.Reading, error)

	// GetDataRange returns the oldest and newest reading timestamps.
	GetDataRange(ctx context.Context) (oldest, newest time.Time, err error)

	// GetReadingCount returns the total number of readings.
	GetReadingCount(ctx context.Context) (int, error)

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Open opens the store for the named driver: sqlite, postgres or mysql.
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(dsn)
	case "mysql":
		return NewMySQLStore(dsn)
	}
	return nil, fmt.Errorf("unknown storage driver: %s", driver)
}
