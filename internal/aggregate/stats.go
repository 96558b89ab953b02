package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

// RainyDayThreshold is the daily rainfall in mm a day must exceed to count
// as rainy.
const RainyDayThreshold = 1.0

// Stats summarizes a group of readings in display units. Fields over an
// empty group are NaN, except TotalRain which is 0.
type Stats struct {
	Count             int
	MedianTemperature float64
	MinTemperature    float64
	MaxTemperature    float64
	TotalRain         float64 // mm
	MaxRainRate       float64 // mm/hr
	MaxWindSpeed      float64 // mph
	MeanLuminance     float64
}

// StatsOf computes Stats over readings.
func StatsOf(readings []weather.Reading) Stats {
	temps := column(readings, func(r weather.Reading) float64 { return r.Temperature })
	return Stats{
		Count:             len(readings),
		MedianTemperature: Median(temps),
		MinTemperature:    Min(temps),
		MaxTemperature:    Max(temps),
		TotalRain:         Sum(column(readings, func(r weather.Reading) float64 { return r.Rain })),
		MaxRainRate: weather.PerSecondToPerHour(
			Max(column(readings, func(r weather.Reading) float64 { return r.RainRate }))),
		MaxWindSpeed: weather.MetersPerSecondToMPH(
			Max(column(readings, func(r weather.Reading) float64 { return r.WindSpeed }))),
		MeanLuminance: Mean(column(readings, func(r weather.Reading) float64 { return r.Luminance })),
	}
}

// Bucket is one period of a chart or table.
type Bucket struct {
	Start time.Time
	Label string
	Stats
}

// Buckets groups readings by g and returns one Bucket per non-empty period,
// ordered by start time.
func Buckets(readings []weather.Reading, g Granularity) []Bucket {
	groups := make(map[int64][]weather.Reading)
	starts := make(map[int64]time.Time)
	for _, r := range readings {
		start := g.Floor(r.Timestamp)
		key := start.Unix()
		groups[key] = append(groups[key], r)
		starts[key] = start
	}

	out := make([]Bucket, 0, len(groups))
	for key, rs := range groups {
		start := starts[key]
		out = append(out, Bucket{Start: start, Label: g.Label(start), Stats: StatsOf(rs)})
	}
	slices.SortFunc(out, func(a, b Bucket) int { return a.Start.Compare(b.Start) })
	return out
}

// DayTotal is the rainfall of one calendar day.
type DayTotal struct {
	Day  time.Time
	Rain float64
}

// Rainy reports whether the day's rainfall exceeds RainyDayThreshold.
func (d DayTotal) Rainy() bool { return d.Rain > RainyDayThreshold }

// DailyRain sums rainfall per calendar day, in the readings' own location,
// from the day of the earliest reading through the day of the latest. Days
// without readings are present with zero rain.
func DailyRain(readings []weather.Reading) []DayTotal {
	if len(readings) == 0 {
		return []DayTotal{}
	}
	extent := SpanOf(readings)
	totals := make(map[int64]float64)
	for _, r := range readings {
		totals[Daily.Floor(r.Timestamp).Unix()] += r.Rain
	}

	last := Daily.Floor(extent.End)
	var out []DayTotal
	for day := Daily.Floor(extent.Start); !day.After(last); day = day.AddDate(0, 0, 1) {
		out = append(out, DayTotal{Day: day, Rain: totals[day.Unix()]})
	}
	return out
}

// Summary is the whole-range statistics block.
type Summary struct {
	Stats
	MaxDailyRain float64 // mm
	RainyDays    int
	TotalDays    int
}

// Summarize computes the whole-range summary of readings.
func Summarize(readings []weather.Reading) Summary {
	days := DailyRain(readings)
	s := Summary{Stats: StatsOf(readings), TotalDays: len(days)}

	rain := make([]float64, len(days))
	for i, d := range days {
		rain[i] = d.Rain
		if d.Rainy() {
			s.RainyDays++
		}
	}
	s.MaxDailyRain = Max(rain)
	return s
}

// MonthRow is one line of the monthly overview table.
type MonthRow struct {
	Year            int
	Month           time.Month
	MeanTemperature float64
	MaxTemperature  float64
	MinTemperature  float64
	TotalRain       float64
}

// MonthlyTable groups readings by calendar month, ordered by date.
func MonthlyTable(readings []weather.Reading) []MonthRow {
	type key struct {
		year  int
		month time.Month
	}
	groups := make(map[key][]weather.Reading)
	for _, r := range readings {
		k := key{r.Timestamp.Year(), r.Timestamp.Month()}
		groups[k] = append(groups[k], r)
	}

	out := make([]MonthRow, 0, len(groups))
	for k, rs := range groups {
		temps := column(rs, func(r weather.Reading) float64 { return r.Temperature })
		out = append(out, MonthRow{
			Year:            k.year,
			Month:           k.month,
			MeanTemperature: Mean(temps),
			MaxTemperature:  Max(temps),
			MinTemperature:  Min(temps),
			TotalRain:       Sum(column(rs, func(r weather.Reading) float64 { return r.Rain })),
		})
	}
	slices.SortFunc(out, func(a, b MonthRow) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return out
}

// WindRose counts readings per compass point. Every point is present in the
// result. A direction outside the station's table fails the whole call.
func WindRose(readings []weather.Reading) (map[string]int, error) {
	rose := make(map[string]int, len(weather.CompassPoints))
	for _, p := range weather.CompassPoints {
		rose[p] = 0
	}
	for _, r := range readings {
		p, err := weather.CompassPoint(r.WindDirection)
		if err != nil {
			return nil, fmt.Errorf("reading %d: %w", r.ID, err)
		}
		rose[p]++
	}
	return rose, nil
}

func column(readings []weather.Reading, f func(weather.Reading) float64) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = f(r)
	}
	return out
}
