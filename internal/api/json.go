package api

import (
	"math"
	"strconv"
	"time"

	"github.com/chadmayfield/wxlogd/internal/aggregate"
)

// number is a display value: rounded to one decimal place, and null when
// the statistic is undefined.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, math.Round(f*10)/10, 'f', -1, 64), nil
}

type statsJSON struct {
	Count             int    `json:"count"`
	MedianTemperature number `json:"median_temperature"`
	MinTemperature    number `json:"min_temperature"`
	MaxTemperature    number `json:"max_temperature"`
	TotalRain         number `json:"total_rain_mm"`
	MaxRainRate       number `json:"max_rain_rate_mm_hr"`
	MaxWindSpeed      number `json:"max_wind_speed_mph"`
	MeanLuminance     number `json:"mean_luminance"`
}

func statsToJSON(s aggregate.Stats) statsJSON {
	return statsJSON{
		Count:             s.Count,
		MedianTemperature: number(s.MedianTemperature),
		MinTemperature:    number(s.MinTemperature),
		MaxTemperature:    number(s.MaxTemperature),
		TotalRain:         number(s.TotalRain),
		MaxRainRate:       number(s.MaxRainRate),
		MaxWindSpeed:      number(s.MaxWindSpeed),
		MeanLuminance:     number(s.MeanLuminance),
	}
}

type bucketJSON struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
	statsJSON
}

type summaryJSON struct {
	statsJSON
	MaxDailyRain number `json:"max_daily_rain_mm"`
	RainyDays    int    `json:"rainy_days"`
	TotalDays    int    `json:"total_days"`
}

type dayJSON struct {
	Date  string `json:"date"`
	Rain  number `json:"rain_mm"`
	Rainy bool   `json:"rainy"`
}

type summaryResponse struct {
	TimeRange   string         `json:"time_range"`
	Start       *time.Time     `json:"start"`
	End         *time.Time     `json:"end"`
	Granularity string         `json:"granularity"`
	Buckets     []bucketJSON   `json:"buckets"`
	Summary     summaryJSON    `json:"summary"`
	DailyRain   []dayJSON      `json:"daily_rain"`
	WindRose    map[string]int `json:"wind_rose"`
}

func reportToJSON(timeRange string, rep *aggregate.Report) summaryResponse {
	resp := summaryResponse{
		TimeRange:   timeRange,
		Granularity: rep.Granularity.String(),
		Buckets:     make([]bucketJSON, 0, len(rep.Buckets)),
		Summary: summaryJSON{
			statsJSON:    statsToJSON(rep.Summary.Stats),
			MaxDailyRain: number(rep.Summary.MaxDailyRain),
			RainyDays:    rep.Summary.RainyDays,
			TotalDays:    rep.Summary.TotalDays,
		},
		DailyRain: make([]dayJSON, 0, len(rep.DailyRain)),
		WindRose:  rep.WindRose,
	}
	if !rep.Span.IsZero() {
		start, end := rep.Span.Start, rep.Span.End
		resp.Start, resp.End = &start, &end
	}
	for _, b := range rep.Buckets {
		resp.Buckets = append(resp.Buckets, bucketJSON{Start: b.Start, Label: b.Label, statsJSON: statsToJSON(b.Stats)})
	}
	for _, d := range rep.DailyRain {
		resp.DailyRain = append(resp.DailyRain, dayJSON{Date: d.Day.Format(time.DateOnly), Rain: number(d.Rain), Rainy: d.Rainy()})
	}
	return resp
}

type monthJSON struct {
	Year            int    `json:"year"`
	Month           int    `json:"month"`
	Name            string `json:"name"`
	MeanTemperature number `json:"mean_temperature"`
	MaxTemperature  number `json:"max_temperature"`
	MinTemperature  number `json:"min_temperature"`
	TotalRain       number `json:"total_rain_mm"`
}
