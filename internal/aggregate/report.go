package aggregate

import "github.com/chadmayfield/wxlogd/internal/weather"

// Report bundles everything a dashboard needs for one range.
type Report struct {
	Span        weather.Span
	Granularity Granularity
	Buckets     []Bucket
	Summary     Summary
	DailyRain   []DayTotal
	WindRose    map[string]int
}

// NewReport aggregates readings fetched for span. A zero span, as returned
// for latest, first and all, is replaced by the readings' own extent.
func NewReport(readings []weather.Reading, span weather.Span) (*Report, error) {
	if span.IsZero() {
		span = SpanOf(readings)
	}
	rose, err := WindRose(readings)
	if err != nil {
		return nil, err
	}
	g := GranularityFor(span.Duration())
	return &Report{
		Span:        span,
		Granularity: g,
		Buckets:     Buckets(readings, g),
		Summary:     Summarize(readings),
		DailyRain:   DailyRain(readings),
		WindRose:    rose,
	}, nil
}
