package store

import (
	"context"
	"testing"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

func makeReading(ts time.Time, temp, rain float64) weather.Reading {
	r := weather.Reading{
		Timestamp:     ts,
		Temperature:   temp,
		Pressure:      1013.25,
		Humidity:      65,
		Rain:          rain,
		RainRate:      rain / 300,
		Luminance:     1200,
		WindSpeed:     3.2,
		WindDirection: 225,
	}
	weather.CalendarOf(ts).Apply(&r)
	return r
}

// testStoreContract runs the behavior every backend must share against an
// empty store.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if r, err := s.GetLatest(ctx); err != nil || r != nil {
		t.Fatalf("GetLatest on empty store = %v, %v", r, err)
	}
	if r, err := s.GetFirst(ctx); err != nil || r != nil {
		t.Fatalf("GetFirst on empty store = %v, %v", r, err)
	}
	oldest, newest, err := s.GetDataRange(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !oldest.IsZero() || !newest.IsZero() {
		t.Error("expected zero times for empty store")
	}

	base := time.Date(2024, 3, 1, 0, 10, 0, 0, time.UTC)
	inserted := []time.Time{
		base,
		base.Add(10 * time.Minute),
		base.Add(24*time.Hour - 5*time.Minute),
		base.Add(40 * 24 * time.Hour),
	}
	for i, ts := range inserted {
		r := makeReading(ts, 10+float64(i), 0.6)
		id, err := s.SaveReading(ctx, &r)
		if err != nil {
			t.Fatalf("SaveReading: %v", err)
		}
		if id != int64(i+1) {
			t.Errorf("id = %d, want %d", id, i+1)
		}
	}

	first, err := s.GetFirst(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || first.ID != 1 || !first.Timestamp.Equal(base) {
		t.Errorf("GetFirst = %+v", first)
	}
	if first != nil && (first.Day != 61 || first.Month != 3 || first.Year != 2024 || first.WindDirection != 225) {
		t.Errorf("GetFirst fields = %+v", first)
	}

	latest, err := s.GetLatest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != 4 {
		t.Errorf("GetLatest = %+v, want id 4", latest)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("GetAll returned %d rows, want 4", len(all))
	}

	// Both ends inclusive.
	got, err := s.GetReadings(ctx, base, inserted[2])
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("GetReadings returned %d rows, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Error("GetReadings is not ordered by timestamp")
		}
	}
	if got[0].Timestamp.Location() != time.UTC {
		t.Errorf("timestamp location = %v, want UTC", got[0].Timestamp.Location())
	}

	got, err = s.GetReadings(ctx, base.Add(time.Second), inserted[2].Add(-time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("GetReadings returned %d rows, want 1", len(got))
	}

	oldest, newest, err = s.GetDataRange(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !oldest.Equal(base) || !newest.Equal(inserted[3]) {
		t.Errorf("data range = %v..%v", oldest, newest)
	}

	count, err := s.GetReadingCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
