package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// marchReadings are three readings over two days, 0.6mm each.
func marchReadings() []weather.Reading {
	return []weather.Reading{
		{ID: 1, Timestamp: at(2024, 3, 1, 0, 10), Temperature: 4, Rain: 0.6, WindDirection: 225},
		{ID: 2, Timestamp: at(2024, 3, 1, 0, 20), Temperature: 6, Rain: 0.6, WindDirection: 225},
		{ID: 3, Timestamp: at(2024, 3, 2, 0, 5), Temperature: 9, Rain: 0.6, WindDirection: 0},
	}
}

func TestStatsOf(t *testing.T) {
	readings := []weather.Reading{
		{Temperature: 10, Rain: 0.2, RainRate: 0.001, WindSpeed: 10, Luminance: 100},
		{Temperature: 14, Rain: 0.3, RainRate: 0.0005, WindSpeed: 2, Luminance: 300},
	}
	s := StatsOf(readings)

	if s.Count != 2 {
		t.Errorf("Count = %d", s.Count)
	}
	if s.MedianTemperature != 12 || s.MinTemperature != 10 || s.MaxTemperature != 14 {
		t.Errorf("temperature = %v/%v/%v", s.MedianTemperature, s.MinTemperature, s.MaxTemperature)
	}
	if !approx(s.TotalRain, 0.5) {
		t.Errorf("TotalRain = %v, want 0.5", s.TotalRain)
	}
	if !approx(s.MaxRainRate, 3.6) {
		t.Errorf("MaxRainRate = %v, want 3.6 mm/hr", s.MaxRainRate)
	}
	if !approx(s.MaxWindSpeed, 22.3694) {
		t.Errorf("MaxWindSpeed = %v, want 22.3694 mph", s.MaxWindSpeed)
	}
	if s.MeanLuminance != 200 {
		t.Errorf("MeanLuminance = %v, want 200", s.MeanLuminance)
	}
}

func TestStatsOf_Empty(t *testing.T) {
	s := StatsOf(nil)
	for name, v := range map[string]float64{
		"MedianTemperature": s.MedianTemperature,
		"MinTemperature":    s.MinTemperature,
		"MaxTemperature":    s.MaxTemperature,
		"MaxRainRate":       s.MaxRainRate,
		"MaxWindSpeed":      s.MaxWindSpeed,
		"MeanLuminance":     s.MeanLuminance,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v, want NaN", name, v)
		}
	}
	if s.TotalRain != 0 || s.Count != 0 {
		t.Errorf("TotalRain = %v, Count = %d", s.TotalRain, s.Count)
	}
}

func TestBuckets_Hourly(t *testing.T) {
	readings := []weather.Reading{
		{Timestamp: at(2024, 3, 13, 11, 10), Temperature: 8},
		{Timestamp: at(2024, 3, 13, 10, 5), Temperature: 5},
		{Timestamp: at(2024, 3, 13, 10, 55), Temperature: 7},
	}
	got := Buckets(readings, Hourly)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if got[0].Label != "10:00" || got[0].Count != 2 || got[0].MedianTemperature != 6 {
		t.Errorf("bucket 0 = %+v", got[0])
	}
	if got[1].Label != "11:00" || got[1].Count != 1 || got[1].MaxTemperature != 8 {
		t.Errorf("bucket 1 = %+v", got[1])
	}
}

func TestBuckets_WeeklyStartsMonday(t *testing.T) {
	readings := []weather.Reading{
		{Timestamp: at(2024, 3, 10, 12, 0)}, // Sunday
		{Timestamp: at(2024, 3, 11, 0, 0)},  // Monday
		{Timestamp: at(2024, 3, 17, 23, 0)}, // Sunday
	}
	got := Buckets(readings, Weekly)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if !got[0].Start.Equal(at(2024, 3, 4, 0, 0)) || got[0].Count != 1 {
		t.Errorf("bucket 0 = %v count %d", got[0].Start, got[0].Count)
	}
	if !got[1].Start.Equal(at(2024, 3, 11, 0, 0)) || got[1].Count != 2 {
		t.Errorf("bucket 1 = %v count %d", got[1].Start, got[1].Count)
	}
}

func TestBuckets_Empty(t *testing.T) {
	if got := Buckets(nil, Daily); len(got) != 0 {
		t.Errorf("got %d buckets", len(got))
	}
}

func TestDailyRain_ZeroFillsGaps(t *testing.T) {
	readings := []weather.Reading{
		{Timestamp: at(2024, 3, 5, 8, 0), Rain: 2},
		{Timestamp: at(2024, 3, 1, 8, 0), Rain: 1},
		{Timestamp: at(2024, 3, 1, 9, 0), Rain: 0.5},
	}
	got := DailyRain(readings)
	if len(got) != 5 {
		t.Fatalf("got %d days, want 5", len(got))
	}
	want := []float64{1.5, 0, 0, 0, 2}
	for i, d := range got {
		if d.Rain != want[i] {
			t.Errorf("day %d rain = %v, want %v", i, d.Rain, want[i])
		}
		if !d.Day.Equal(at(2024, 3, 1+i, 0, 0)) {
			t.Errorf("day %d = %v", i, d.Day)
		}
	}
}

func TestDailyRain_AcrossClockChange(t *testing.T) {
	readings := []weather.Reading{
		{Timestamp: at(2024, 3, 30, 23, 0), Rain: 1},
		{Timestamp: at(2024, 4, 1, 1, 0), Rain: 1},
	}
	if got := DailyRain(readings); len(got) != 3 {
		t.Errorf("got %d days, want 3", len(got))
	}
}

func TestSummarize_RainyDayIsStrict(t *testing.T) {
	readings := []weather.Reading{
		{Timestamp: at(2024, 3, 1, 8, 0), Rain: 0.5},
		{Timestamp: at(2024, 3, 1, 9, 0), Rain: 0.5},
		{Timestamp: at(2024, 3, 2, 8, 0), Rain: 1.01},
		{Timestamp: at(2024, 3, 3, 8, 0), Rain: 0},
	}
	s := Summarize(readings)
	if s.RainyDays != 1 {
		t.Errorf("RainyDays = %d, want 1", s.RainyDays)
	}
	if s.TotalDays != 3 {
		t.Errorf("TotalDays = %d, want 3", s.TotalDays)
	}
	if s.MaxDailyRain != 1.01 {
		t.Errorf("MaxDailyRain = %v, want 1.01", s.MaxDailyRain)
	}
}

func TestSummarize_March(t *testing.T) {
	s := Summarize(marchReadings())

	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.RainyDays != 1 || s.TotalDays != 2 {
		t.Errorf("rainy days = %d/%d, want 1/2", s.RainyDays, s.TotalDays)
	}
	if !approx(s.TotalRain, 1.8) {
		t.Errorf("TotalRain = %v, want 1.8", s.TotalRain)
	}
	if !approx(s.MaxDailyRain, 1.2) {
		t.Errorf("MaxDailyRain = %v, want 1.2", s.MaxDailyRain)
	}
	if s.MedianTemperature != 6 || s.MinTemperature != 4 || s.MaxTemperature != 9 {
		t.Errorf("temperature = %v/%v/%v", s.MedianTemperature, s.MinTemperature, s.MaxTemperature)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalDays != 0 || s.RainyDays != 0 {
		t.Errorf("days = %d/%d", s.RainyDays, s.TotalDays)
	}
	if !math.IsNaN(s.MaxDailyRain) || !math.IsNaN(s.MedianTemperature) {
		t.Errorf("summary of nothing = %+v", s)
	}
}

func TestMonthlyTable(t *testing.T) {
	readings := []weather.Reading{
		{Timestamp: at(2024, 3, 2, 12, 0), Temperature: 10, Rain: 1},
		{Timestamp: at(2024, 2, 10, 12, 0), Temperature: 2, Rain: 3},
		{Timestamp: at(2024, 3, 20, 12, 0), Temperature: 14, Rain: 2},
		{Timestamp: at(2023, 12, 31, 12, 0), Temperature: 1},
	}
	got := MonthlyTable(readings)
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0].Year != 2023 || got[0].Month != 12 {
		t.Errorf("row 0 = %d-%d", got[0].Year, got[0].Month)
	}
	if got[1].Month != 2 || got[1].TotalRain != 3 {
		t.Errorf("row 1 = %+v", got[1])
	}
	mar := got[2]
	if mar.Month != 3 || mar.MeanTemperature != 12 || mar.MaxTemperature != 14 || mar.MinTemperature != 10 || mar.TotalRain != 3 {
		t.Errorf("row 2 = %+v", mar)
	}
}

func TestWindRose(t *testing.T) {
	rose, err := WindRose(marchReadings())
	if err != nil {
		t.Fatal(err)
	}
	if len(rose) != len(weather.CompassPoints) {
		t.Errorf("rose has %d points", len(rose))
	}
	if rose["N"] != 2 || rose["SE"] != 1 || rose["S"] != 0 {
		t.Errorf("rose = %v", rose)
	}
}

func TestWindRose_Unmappable(t *testing.T) {
	readings := append(marchReadings(), weather.Reading{ID: 4, WindDirection: 1})
	_, err := WindRose(readings)
	if !errors.Is(err, weather.ErrUnmappableDirection) {
		t.Fatalf("error = %v, want ErrUnmappableDirection", err)
	}
}

func TestNewReport(t *testing.T) {
	r, err := NewReport(marchReadings(), weather.Span{})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Span.Start.Equal(at(2024, 3, 1, 0, 10)) || !r.Span.End.Equal(at(2024, 3, 2, 0, 5)) {
		t.Errorf("span = %+v, want data extent", r.Span)
	}
	if r.Granularity != Hourly {
		t.Errorf("granularity = %v, want hourly", r.Granularity)
	}
	if len(r.DailyRain) != 2 {
		t.Errorf("daily rain = %v", r.DailyRain)
	}

	month := weather.Span{Start: at(2024, 3, 1, 0, 0), End: at(2024, 3, 31, 23, 59)}
	r, err = NewReport(marchReadings(), month)
	if err != nil {
		t.Fatal(err)
	}
	if r.Granularity != Weekly {
		t.Errorf("granularity = %v, want weekly", r.Granularity)
	}
	if len(r.Buckets) != 1 || r.Buckets[0].Count != 3 {
		t.Errorf("buckets = %+v", r.Buckets)
	}
}
