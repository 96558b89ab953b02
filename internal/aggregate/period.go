package aggregate

import (
	"fmt"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

// Granularity is the width of the buckets readings are grouped into.
type Granularity int

const (
	Hourly Granularity = iota
	Daily
	Weekly
	Monthly
)

// Upper span limits (inclusive) for each granularity.
const (
	HourlyMaxSpan = 2 * 24 * time.Hour
	DailyMaxSpan  = 14 * 24 * time.Hour
	WeeklyMaxSpan = 92 * 24 * time.Hour
)

// GranularityFor picks the bucket width for a range of the given length.
func GranularityFor(span time.Duration) Granularity {
	switch {
	case span <= HourlyMaxSpan:
		return Hourly
	case span <= DailyMaxSpan:
		return Daily
	case span <= WeeklyMaxSpan:
		return Weekly
	default:
		return Monthly
	}
}

func (g Granularity) String() string {
	switch g {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// Floor returns the start of the bucket containing t, in t's location.
// Weekly buckets start on Monday, monthly buckets on the 1st.
func (g Granularity) Floor(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch g {
	case Hourly:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case Weekly:
		monday := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-monday, 0, 0, 0, 0, loc)
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// Layout returns the time layout used for bucket labels.
func (g Granularity) Layout() string {
	switch g {
	case Hourly:
		return "15:04"
	case Weekly:
		return "w/c 02-Jan"
	case Monthly:
		return "Jan-2006"
	default:
		return "02-Jan"
	}
}

// Label formats a bucket start for display.
func (g Granularity) Label(start time.Time) string {
	return start.Format(g.Layout())
}

// SpanOf returns the extent of the readings' timestamps. It is used in place
// of a resolved span for latest, first and all.
func SpanOf(readings []weather.Reading) weather.Span {
	var s weather.Span
	for i, r := range readings {
		if i == 0 || r.Timestamp.Before(s.Start) {
			s.Start = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(s.End) {
			s.End = r.Timestamp
		}
	}
	return s
}
