package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chadmayfield/wxlogd/internal/aggregate"
	"github.com/chadmayfield/wxlogd/internal/config"
	"github.com/chadmayfield/wxlogd/internal/weather"
)

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		newLogger("json", &buf).Info("hello", "time_range", "today")
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("output is not JSON: %q", buf.String())
		}
		if entry["msg"] != "hello" || entry["time_range"] != "today" {
			t.Errorf("entry = %v", entry)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		newLogger("text", &buf).Info("hello")
		if !strings.Contains(buf.String(), "msg=hello") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("tint", func(t *testing.T) {
		var buf bytes.Buffer
		newLogger("tint", &buf).Info("hello", "id", 7)
		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "7") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("default is json", func(t *testing.T) {
		var buf bytes.Buffer
		newLogger("", &buf).Info("hello")
		if !json.Valid(bytes.TrimSpace(buf.Bytes())) {
			t.Errorf("output is not JSON: %q", buf.String())
		}
	})
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1247832, "1,247,832"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "postgres",
			cfg:  config.Config{Storage: config.StorageConfig{Driver: "postgres", Postgres: config.PostgresConfig{DSN: "postgres://wx:secret@db:5432/weather"}}},
			want: "postgres://wx:%2A%2A%2A@db:5432/weather",
		},
		{
			name: "mysql",
			cfg:  config.Config{Storage: config.StorageConfig{Driver: "mysql", MySQL: config.MySQLConfig{DSN: "wx:secret@tcp(db:3306)/weather"}}},
			want: "wx:***@tcp(db:3306)/weather",
		},
		{
			name: "sqlite",
			cfg:  config.Config{Storage: config.StorageConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: "/var/lib/wxlogd/weather.db"}}},
			want: "/var/lib/wxlogd/weather.db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := displayDSN(&tt.cfg)
			if strings.Contains(got, "secret") {
				t.Errorf("displayDSN leaks the password: %q", got)
			}
			if got != tt.want {
				t.Errorf("displayDSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewMirror(t *testing.T) {
	cfg := &config.Config{}
	if m := newMirror(cfg); m != nil {
		t.Errorf("newMirror with no sinks = %v, want nil", m)
	}

	cfg.Mirror = config.MirrorConfig{
		Timeout: time.Second,
		HTTP:    config.HTTPMirrorConfig{URL: "http://backup:5000/weather-data"},
		Kafka:   config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "weather-readings"},
	}
	m := newMirror(cfg)
	if m == nil {
		t.Fatal("newMirror = nil")
	}
	defer m.Close() //nolint:errcheck

	st := m.Status()
	if len(st) != 2 || st[0].Name != "http" || st[1].Name != "kafka" {
		t.Errorf("sinks = %+v", st)
	}
}

func TestBackfillToken(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 3, 13, 14, 30, 0, 0, london)

	tok, err := backfillToken("week=3", "", "", now)
	if err != nil || tok != weather.WeekOf(3) {
		t.Errorf("backfillToken(week=3) = %+v, %v", tok, err)
	}

	tok, err = backfillToken("", "2024-03-01", "2024-03-02", now)
	if err != nil {
		t.Fatal(err)
	}
	if !tok.Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, london)) || !tok.End.Equal(time.Date(2024, 3, 2, 23, 59, 59, 0, london)) {
		t.Errorf("dates token = %v..%v", tok.Start, tok.End)
	}

	tok, err = backfillToken("", "2024-03-01", "", now)
	if err != nil || !tok.End.Equal(now) {
		t.Errorf("open-ended token = %+v, %v", tok, err)
	}

	if _, err := backfillToken("fortnight", "", "", now); !errors.Is(err, weather.ErrInvalidArgument) {
		t.Errorf("bad token error = %v", err)
	}
	if _, err := backfillToken("", "March", "", now); err == nil {
		t.Error("expected error for bad --from date")
	}
	if _, err := backfillToken("", "2024-03-05", "2024-03-01", now); !errors.Is(err, weather.ErrInvalidArgument) {
		t.Errorf("reversed dates error = %v", err)
	}
}

func TestPrintReport(t *testing.T) {
	at := func(day, hour int) time.Time { return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC) }
	readings := []weather.Reading{
		{ID: 1, Timestamp: at(1, 9), Temperature: 6, Rain: 0.7, WindDirection: 225},
		{ID: 2, Timestamp: at(1, 15), Temperature: 9, Rain: 0.5, WindDirection: 225},
		{ID: 3, Timestamp: at(2, 12), Temperature: 7, Rain: 0.6, WindDirection: 0},
	}
	tok := weather.MonthOf(3)
	span, err := tok.Resolve(time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	rep, err := aggregate.NewReport(readings, span)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printReport(&buf, tok, rep)
	out := buf.String()

	for _, want := range []string{
		"Range: month=3",
		"Readings: 3",
		"median 7.0°C, min 6.0, max 9.0",
		"1.8 mm total, wettest day 1.2 mm, 1 of 2 days rainy",
		"Weekly buckets:",
		"w/c 26-Feb",
		"Wind rose: N 2",
		"SE 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportEmpty(t *testing.T) {
	rep, err := aggregate.NewReport(nil, weather.Span{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	printReport(&buf, weather.Token{Kind: weather.KindAll}, rep)
	if got := buf.String(); got != "Range: all\nReadings: 0\n" {
		t.Errorf("report = %q", got)
	}
}

func TestPrintHealth(t *testing.T) {
	var health healthReport
	body := `{
		"status": "healthy",
		"version": "v0.3.0",
		"uptime": "2h 5m",
		"timezone": "Europe/London",
		"database": {"driver": "sqlite", "status": "ok", "size_bytes": 2097152, "total_readings": 12034,
			"data_range_oldest": "2023-11-02", "data_range_newest": "2024-03-13"},
		"mirrors": [{"name": "http", "sent": 1500, "error_count": 2, "last_error": "peer server error", "state": "closed"}]
	}`
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printHealth(&buf, &health)
	out := buf.String()
	for _, want := range []string{
		"wxlogd v0.3.0",
		"Status: healthy",
		"Database: sqlite (ok)",
		"Size: 2.0 MB",
		"Readings: 12,034",
		"Data range: 2023-11-02 to 2024-03-13",
		"http: 1,500 sent, 2 errors, breaker closed",
		"Last error: peer server error",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
