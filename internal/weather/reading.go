package weather

import "time"

// Reading is one row of the data table. Values are stored in SI units;
// Day, Week, Month and Year are derived from the local Timestamp at ingestion.
type Reading struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	Pressure      float64   `json:"pressure"`
	Humidity      float64   `json:"humidity"`
	Rain          float64   `json:"rain"`
	RainRate      float64   `json:"rain_rate"`
	Luminance     float64   `json:"luminance"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
	Day           int       `json:"day"`
	Week          int       `json:"week"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
}

// Calendar holds the redundant date fields stored alongside each reading.
type Calendar struct {
	Day   int
	Week  int
	Month int
	Year  int
}

// CalendarOf derives the calendar fields of t in t's own location.
func CalendarOf(t time.Time) Calendar {
	return Calendar{
		Day:   t.YearDay(),
		Week:  WeekOfYear(t),
		Month: int(t.Month()),
		Year:  t.Year(),
	}
}

// Apply copies the calendar fields onto r.
func (c Calendar) Apply(r *Reading) {
	r.Day = c.Day
	r.Week = c.Week
	r.Month = c.Month
	r.Year = c.Year
}

// WeekOfYear returns the Monday-start week number (0-53) used by strftime's %W:
// days before the first Monday of the year fall in week 0.
func WeekOfYear(t time.Time) int {
	return (t.YearDay() - 1 + 7 - mondayIndex(t)) / 7
}

// mondayIndex returns 0 for Monday through 6 for Sunday.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
