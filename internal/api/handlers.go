package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/chadmayfield/wxlogd/internal/aggregate"
	"github.com/chadmayfield/wxlogd/internal/ingest"
	"github.com/chadmayfield/wxlogd/internal/mirror"
	"github.com/chadmayfield/wxlogd/internal/store"
	"github.com/chadmayfield/wxlogd/internal/weather"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Store         store.Store
	Fetcher       *weather.Fetcher
	Ingest        *ingest.Service
	Mirror        *mirror.Mirror
	Metrics       *Metrics
	Logger        *slog.Logger
	StartTime     time.Time
	StorageDriver string
	StoragePath   string
	Version       string
}

// apiError is a JSON error response.
type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg, Code: status})
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// parseTime accepts RFC3339, YYYY-MM-DD or a Unix epoch. The second result
// reports a date-only value, which is midnight in loc.
func parseTime(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true, nil
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(epoch, 0).In(loc), false, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: invalid time format: %q (expected RFC3339, YYYY-MM-DD, or Unix epoch)", weather.ErrInvalidArgument, s)
}

// parseRange reads the requested range from the query string. An explicit
// start/end pair wins over time_range; a date-only end covers that whole day.
func (h *Handlers) parseRange(r *http.Request, def string) (weather.Token, error) {
	q := r.URL.Query()
	startStr, endStr := q.Get("start"), q.Get("end")
	if startStr == "" && endStr == "" {
		s := q.Get("time_range")
		if s == "" {
			s = def
		}
		return weather.ParseToken(s)
	}
	if startStr == "" || endStr == "" {
		return weather.Token{}, fmt.Errorf("%w: 'start' and 'end' must be given together", weather.ErrInvalidArgument)
	}

	loc := h.Fetcher.Location()
	start, _, err := parseTime(startStr, loc)
	if err != nil {
		return weather.Token{}, err
	}
	end, dateOnly, err := parseTime(endStr, loc)
	if err != nil {
		return weather.Token{}, err
	}
	if dateOnly {
		end = end.AddDate(0, 0, 1).Add(-time.Second)
	}
	return weather.Between(start, end)
}

// writeQueryError maps fetch and aggregation failures to a response.
func (h *Handlers) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, weather.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrUnmappableDirection):
		h.logger().Error("stored reading has an unmappable wind direction", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "invalid wind direction in stored data")
	default:
		h.logger().Error("query failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// PostWeatherData handles POST /weather-data
func (h *Handlers) PostWeatherData(w http.ResponseWriter, r *http.Request) {
	type ingestResponse struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
		Mirror  string `json:"mirror,omitempty"`
	}

	p, err := ingest.ParsePayload(r.Body)
	if err != nil {
		h.Metrics.recordIngest("rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Ingest.Ingest(r.Context(), p)
	if err != nil {
		if errors.Is(err, weather.ErrInvalidArgument) {
			h.Metrics.recordIngest("rejected")
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Metrics.recordIngest("failed")
		h.logger().Error("failed to store reading", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}

	addLogAttrs(r.Context(), "reading_id", res.ID)
	resp := ingestResponse{Message: "Data received", ID: res.ID}
	switch {
	case res.MirrorErr != nil:
		resp.Mirror = "failed"
		h.Metrics.recordIngest("mirror_failed")
	case res.Mirrored:
		resp.Mirror = "ok"
		h.Metrics.recordIngest("stored")
	default:
		h.Metrics.recordIngest("stored")
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetData handles GET /get_data
func (h *Handlers) GetData(w http.ResponseWriter, r *http.Request) {
	tok, err := h.parseRange(r, "latest")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, _, err := h.Fetcher.Fetch(r.Context(), tok)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	addLogAttrs(r.Context(), "rows", len(rows))
	writeJSON(w, http.StatusOK, rows)
}

// GetCurrent handles GET /api/v1/current
func (h *Handlers) GetCurrent(w http.ResponseWriter, r *http.Request) {
	type currentResponse struct {
		ID                    int64     `json:"id"`
		Timestamp             time.Time `json:"timestamp"`
		TimeLabel             string    `json:"time_label"`
		Temperature           number    `json:"temperature"`
		Pressure              number    `json:"pressure"`
		Humidity              number    `json:"humidity"`
		Luminance             number    `json:"luminance"`
		RainRate              number    `json:"rain_rate_mm_hr"`
		WindSpeed             number    `json:"wind_speed_mph"`
		WindDirection         float64   `json:"wind_direction"`
		WindDirectionCardinal string    `json:"wind_direction_cardinal"`
	}

	rows, _, err := h.Fetcher.Fetch(r.Context(), weather.Token{Kind: weather.KindLatest})
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "no readings found")
		return
	}

	latest := rows[0]
	cardinal, err := weather.CompassPoint(latest.WindDirection)
	if err != nil {
		h.writeQueryError(w, r, fmt.Errorf("reading %d: %w", latest.ID, err))
		return
	}

	writeJSON(w, http.StatusOK, currentResponse{
		ID:                    latest.ID,
		Timestamp:             latest.Timestamp,
		TimeLabel:             latest.Timestamp.Format("Monday at 15:04"),
		Temperature:           number(latest.Temperature),
		Pressure:              number(latest.Pressure),
		Humidity:              number(latest.Humidity),
		Luminance:             number(latest.Luminance),
		RainRate:              number(weather.PerSecondToPerHour(latest.RainRate)),
		WindSpeed:             number(weather.MetersPerSecondToMPH(latest.WindSpeed)),
		WindDirection:         latest.WindDirection,
		WindDirectionCardinal: cardinal,
	})
}

// GetSummary handles GET /api/v1/summary
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	tok, err := h.parseRange(r, "today")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, span, err := h.Fetcher.Fetch(r.Context(), tok)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}

	rep, err := aggregate.NewReport(rows, span)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToJSON(tok.String(), rep))
}

// GetMonthly handles GET /api/v1/monthly
func (h *Handlers) GetMonthly(w http.ResponseWriter, r *http.Request) {
	tok, err := h.parseRange(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, _, err := h.Fetcher.Fetch(r.Context(), tok)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}

	months := aggregate.MonthlyTable(rows)
	result := make([]monthJSON, 0, len(months))
	for _, m := range months {
		result = append(result, monthJSON{
			Year:            m.Year,
			Month:           int(m.Month),
			Name:            m.Month.String(),
			MeanTemperature: number(m.MeanTemperature),
			MaxTemperature:  number(m.MaxTemperature),
			MinTemperature:  number(m.MinTemperature),
			TotalRain:       number(m.TotalRain),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type dbHealth struct {
		Driver          string `json:"driver"`
		Status          string `json:"status"`
		SizeBytes       int64  `json:"size_bytes,omitempty"`
		TotalReadings   int    `json:"total_readings"`
		DataRangeOldest string `json:"data_range_oldest,omitempty"`
		DataRangeNewest string `json:"data_range_newest,omitempty"`
	}
	type healthResponse struct {
		Status   string              `json:"status"`
		Version  string              `json:"version"`
		Uptime   string              `json:"uptime"`
		Timezone string              `json:"timezone,omitempty"`
		Database dbHealth            `json:"database"`
		Mirrors  []mirror.SinkStatus `json:"mirrors,omitempty"`
	}

	resp := healthResponse{
		Status:  "healthy",
		Version: h.Version,
		Uptime:  formatUptime(time.Since(h.StartTime)),
	}
	if h.Fetcher != nil {
		resp.Timezone = h.Fetcher.Location().String()
	}

	// Database health (path omitted to avoid exposing filesystem details).
	resp.Database = dbHealth{
		Driver: h.StorageDriver,
		Status: "ok",
	}
	if err := h.Store.Ping(r.Context()); err != nil {
		h.logger().Warn("health check: database unreachable", "error", err)
		resp.Status = "degraded"
		resp.Database.Status = "unreachable"
	} else {
		if count, err := h.Store.GetReadingCount(r.Context()); err == nil {
			resp.Database.TotalReadings = count
		}
		if oldest, newest, err := h.Store.GetDataRange(r.Context()); err == nil && !oldest.IsZero() {
			loc := time.UTC
			if h.Fetcher != nil {
				loc = h.Fetcher.Location()
			}
			resp.Database.DataRangeOldest = oldest.In(loc).Format(time.DateOnly)
			resp.Database.DataRangeNewest = newest.In(loc).Format(time.DateOnly)
		}
	}
	if h.StorageDriver == "sqlite" && h.StoragePath != "" {
		if info, err := os.Stat(h.StoragePath); err == nil {
			resp.Database.SizeBytes = info.Size()
		}
	}

	if h.Mirror != nil {
		resp.Mirrors = h.Mirror.Status()
	}

	writeJSON(w, http.StatusOK, resp)
}
