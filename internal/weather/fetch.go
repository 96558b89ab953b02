package weather

import (
	"context"
	"fmt"
	"time"
)

// RowSource is the row store as seen by the Fetcher.
type RowSource interface {
	GetLatest(ctx context.Context) (*Reading, error)
	GetFirst(ctx context.Context) (*Reading, error)
	GetAll(ctx context.Context) ([]Reading, error)
	GetReadings(ctx context.Context, start, end time.Time) ([]Reading, error)
}

// Fetcher resolves time range tokens and loads the matching readings.
type Fetcher struct {
	rows RowSource
	loc  *time.Location
	now  func() time.Time
}

// NewFetcher returns a Fetcher that resolves ranges in loc.
func NewFetcher(rows RowSource, loc *time.Location) *Fetcher {
	if loc == nil {
		loc = time.Local
	}
	return &Fetcher{rows: rows, loc: loc, now: time.Now}
}

// SetClock replaces the clock used to anchor relative ranges.
func (f *Fetcher) SetClock(now func() time.Time) { f.now = now }

// Location returns the station's local time zone.
func (f *Fetcher) Location() *time.Location { return f.loc }

// Now returns the current local time, truncated to the second.
func (f *Fetcher) Now() time.Time {
	return f.now().In(f.loc).Truncate(time.Second)
}

// FetchToken parses s and fetches the readings it selects.
func (f *Fetcher) FetchToken(ctx context.Context, s string) ([]Reading, Span, error) {
	tok, err := ParseToken(s)
	if err != nil {
		return nil, Span{}, err
	}
	return f.Fetch(ctx, tok)
}

// Fetch loads the readings selected by tok. latest yields at most one row,
// first yields the row with id 1, all yields every row. Other tokens select
// rows whose timestamp lies within the resolved span, both ends inclusive.
// An empty result is not an error.
func (f *Fetcher) Fetch(ctx context.Context, tok Token) ([]Reading, Span, error) {
	span, err := tok.Resolve(f.Now())
	if err != nil {
		return nil, Span{}, err
	}

	var rows []Reading
	if tok.Bounded() {
		rows, err = f.rows.GetReadings(ctx, span.Start, span.End)
	} else {
		switch tok.Kind {
		case KindLatest:
			rows, err = one(f.rows.GetLatest(ctx))
		case KindFirst:
			rows, err = one(f.rows.GetFirst(ctx))
		default:
			rows, err = f.rows.GetAll(ctx)
		}
	}
	if err != nil {
		return nil, Span{}, fmt.Errorf("%w: fetching %s: %w", ErrStoreUnavailable, tok, err)
	}

	if rows == nil {
		rows = []Reading{}
	}
	for i := range rows {
		rows[i].Timestamp = rows[i].Timestamp.In(f.loc)
	}
	return rows, span, nil
}

func one(r *Reading, err error) ([]Reading, error) {
	if err != nil || r == nil {
		return nil, err
	}
	return []Reading{*r}, nil
}
