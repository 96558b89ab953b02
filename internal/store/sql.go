package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
	dialectMySQL
)

func (d dialect) String() string {
	switch d {
	case dialectPostgres:
		return "postgres"
	case dialectMySQL:
		return "mysql"
	}
	return "sqlite"
}

// sqliteTimeLayout keeps stored timestamps lexically ordered.
const sqliteTimeLayout = "2006-01-02 15:04:05"

const readingColumns = `id, timestamp, temperature, pressure, humidity, rain, rain_rate,
	luminance, wind_speed, wind_direction, day, week, month, year`

// SQLStore implements Store on database/sql. Timestamps are stored as UTC.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

// DB returns the underlying database connection for migration commands.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Driver returns the storage driver name.
func (s *SQLStore) Driver() string {
	return s.dialect.String()
}

// rebind converts ? placeholders for the store's dialect.
func (s *SQLStore) rebind(query string) string {
	if s.dialect == dialectPostgres {
		return replacePlaceholders(query)
	}
	return query
}

// timeArg encodes t as a query argument.
func (s *SQLStore) timeArg(t time.Time) any {
	if s.dialect == dialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

func (s *SQLStore) SaveReading(ctx context.Context, r *weather.Reading) (int64, error) {
	query := `INSERT INTO data (
			timestamp, temperature, pressure, humidity, rain, rain_rate,
			luminance, wind_speed, wind_direction, day, week, month, year
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		s.timeArg(r.Timestamp), r.Temperature, r.Pressure, r.Humidity, r.Rain, r.RainRate,
		r.Luminance, r.WindSpeed, r.WindDirection, r.Day, r.Week, r.Month, r.Year,
	}

	// pgx does not support LastInsertId.
	if s.dialect == dialectPostgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("saving reading: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("saving reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

func (s *SQLStore) GetLatest(ctx context.Context) (*weather.Reading, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+readingColumns+`
		FROM data ORDER BY timestamp DESC, id DESC LIMIT 1`)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest reading: %w", err)
	}
	return r, nil
}

func (s *SQLStore) GetFirst(ctx context.Context) (*weather.Reading, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+readingColumns+` FROM data WHERE id = 1`)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting first reading: %w", err)
	}
	return r, nil
}

func (s *SQLStore) GetAll(ctx context.Context) ([]weather.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+readingColumns+` FROM data ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanReadings(rows)
}

func (s *SQLStore) GetReadings(ctx context.Context, start, end time.Time) ([]weather.Reading, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+readingColumns+`
		FROM data
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp, id`), s.timeArg(start), s.timeArg(end))
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanReadings(rows)
}

func (s *SQLStore) GetDataRange(ctx context.Context) (oldest, newest time.Time, err error) {
	var oldestRaw, newestRaw any
	err = s.db.QueryRowContext(ctx, `SELECT MIN(timestamp), MAX(timestamp) FROM data`).Scan(&oldestRaw, &newestRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("querying data range: %w", err)
	}
	if oldestRaw == nil || newestRaw == nil {
		return time.Time{}, time.Time{}, nil
	}

	oldest, err = parseTimestamp(oldestRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing oldest: %w", err)
	}
	newest, err = parseTimestamp(newestRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing newest: %w", err)
	}
	return oldest, newest, nil
}

func (s *SQLStore) GetReadingCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM data`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return count, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// --- Shared helpers ---

type scanner interface {
	Scan(dest ...any) error
}

// parseTimestamp handles the timestamp representations of all three drivers.
// Values without a zone are taken as UTC.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return parseTimestamp(string(t))
	case string:
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05.999999999-07:00",
			"2006-01-02 15:04:05 -0700 MST",
			"2006-01-02 15:04:05.999999999",
			sqliteTimeLayout,
			"2006-01-02 15:04",
			"2006-01-02",
		} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse timestamp: %q", t)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type: %T", v)
	}
}

func scanReading(row scanner) (*weather.Reading, error) {
	var r weather.Reading
	var tsRaw any
	err := row.Scan(
		&r.ID, &tsRaw, &r.Temperature, &r.Pressure, &r.Humidity, &r.Rain, &r.RainRate,
		&r.Luminance, &r.WindSpeed, &r.WindDirection, &r.Day, &r.Week, &r.Month, &r.Year,
	)
	if err != nil {
		return nil, err
	}
	r.Timestamp, err = parseTimestamp(tsRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}
	return &r, nil
}

func scanReadings(rows *sql.Rows) ([]weather.Reading, error) {
	var result []weather.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// replacePlaceholders converts ? to $1, $2, $3 etc for postgres.
func replacePlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
