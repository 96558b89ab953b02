package weather

import (
	"errors"
	"testing"
	"time"
)

var london = mustLoadLocation("Europe/London")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Wednesday 2024-03-13 14:30:15 local.
var testNow = time.Date(2024, 3, 13, 14, 30, 15, 0, london)

func mustParseToken(s string) Token {
	t, err := ParseToken(s)
	if err != nil {
		panic(err)
	}
	return t
}

func date(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, london)
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in      string
		want    Token
		wantErr bool
	}{
		{in: "latest", want: Token{Kind: KindLatest}},
		{in: "first", want: Token{Kind: KindFirst}},
		{in: "all", want: Token{Kind: KindAll}},
		{in: "today", want: Token{Kind: KindToday}},
		{in: "yesterday", want: Token{Kind: KindYesterday}},
		{in: "last24h", want: Token{Kind: KindLast24h}},
		{in: "last7days", want: Token{Kind: KindLast7Days}},
		{in: "week", want: Token{Kind: KindWeek}},
		{in: "month", want: Token{Kind: KindMonth}},
		{in: "year", want: Token{Kind: KindYear}},
		{in: "day=1", want: DayOfYear(1)},
		{in: "day=366", want: DayOfYear(366)},
		{in: "week=3", want: WeekOf(3)},
		{in: "month=12", want: MonthOf(12)},
		{in: "year=2023", want: YearOf(2023)},
		{in: "", wantErr: true},
		{in: "tomorrow", wantErr: true},
		{in: "Today", wantErr: true},
		{in: "year-month", wantErr: true},
		{in: "month=0", wantErr: true},
		{in: "month=13", wantErr: true},
		{in: "month=x", wantErr: true},
		{in: "day=0", wantErr: true},
		{in: "day=367", wantErr: true},
		{in: "week=0", wantErr: true},
		{in: "week=54", wantErr: true},
		{in: "hour=3", wantErr: true},
		{in: "latest=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseToken(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("ParseToken(%q) error = %v, want ErrInvalidArgument", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseToken(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseToken(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestToken_Resolve(t *testing.T) {
	tests := []struct {
		token string
		start time.Time
		end   time.Time
	}{
		{"today", date(2024, 3, 13, 0, 0, 0), date(2024, 3, 13, 23, 59, 59)},
		{"yesterday", date(2024, 3, 12, 0, 0, 0), date(2024, 3, 13, 0, 0, 0)},
		{"last24h", testNow.Add(-24 * time.Hour), testNow},
		{"last7days", date(2024, 3, 7, 0, 0, 0), testNow},
		{"day=1", date(2024, 1, 1, 0, 0, 0), date(2024, 1, 1, 23, 59, 59)},
		{"day=60", date(2024, 2, 29, 0, 0, 0), date(2024, 2, 29, 23, 59, 59)},
		{"day=366", date(2024, 12, 31, 0, 0, 0), date(2024, 12, 31, 23, 59, 59)},
		{"week", date(2024, 3, 11, 0, 0, 0), date(2024, 3, 17, 23, 59, 59)},
		{"week=1", date(2024, 1, 1, 0, 0, 0), date(2024, 1, 7, 23, 59, 59)},
		{"week=3", date(2024, 1, 15, 0, 0, 0), date(2024, 1, 21, 23, 59, 59)},
		{"month", date(2024, 3, 1, 0, 0, 0), date(2024, 3, 31, 23, 59, 59)},
		{"month=2", date(2024, 2, 1, 0, 0, 0), date(2024, 2, 29, 23, 59, 59)},
		{"month=12", date(2024, 12, 1, 0, 0, 0), date(2024, 12, 31, 23, 59, 59)},
		{"year", date(2024, 1, 1, 0, 0, 0), date(2024, 12, 31, 23, 59, 59)},
		{"year=2023", date(2023, 1, 1, 0, 0, 0), date(2023, 12, 31, 23, 59, 59)},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			span, err := mustParseToken(tt.token).Resolve(testNow)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !span.Start.Equal(tt.start) {
				t.Errorf("start = %v, want %v", span.Start, tt.start)
			}
			if !span.End.Equal(tt.end) {
				t.Errorf("end = %v, want %v", span.End, tt.end)
			}
		})
	}
}

func TestToken_ResolveUnbounded(t *testing.T) {
	for _, s := range []string{"latest", "first", "all"} {
		tok := mustParseToken(s)
		if tok.Bounded() {
			t.Errorf("%s: Bounded() = true", s)
		}
		span, err := tok.Resolve(testNow)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if !span.IsZero() {
			t.Errorf("%s: span = %+v, want zero", s, span)
		}
	}
}

func TestToken_StartBeforeEnd(t *testing.T) {
	tokens := []string{
		"today", "yesterday", "last24h", "last7days", "week", "month", "year",
		"day=1", "day=59", "day=365", "week=1", "week=52", "week=53",
		"month=1", "month=6", "month=12", "year=1999", "year=2030",
	}
	nows := []time.Time{
		testNow,
		date(2024, 1, 1, 0, 0, 0),
		date(2023, 12, 31, 23, 59, 59),
		date(2024, 3, 31, 1, 30, 0), // DST change day
		date(2024, 1, 7, 12, 0, 0),  // Sunday
	}
	for _, now := range nows {
		for _, s := range tokens {
			span, err := mustParseToken(s).Resolve(now)
			if err != nil {
				t.Fatalf("%s at %v: %v", s, now, err)
			}
			if !span.Start.Before(span.End) {
				t.Errorf("%s at %v: start %v not before end %v", s, now, span.Start, span.End)
			}
		}
	}
}

func TestToken_YesterdayMeetsToday(t *testing.T) {
	today, _ := mustParseToken("today").Resolve(testNow)
	yesterday, _ := mustParseToken("yesterday").Resolve(testNow)
	if !yesterday.End.Equal(today.Start) {
		t.Errorf("yesterday.End = %v, today.Start = %v", yesterday.End, today.Start)
	}
}

func TestToken_DecemberRollsIntoNextYear(t *testing.T) {
	dec, _ := MonthOf(12).Resolve(testNow)
	next, _ := YearOf(testNow.Year() + 1).Resolve(testNow)
	if want := next.Start.Add(-time.Second); !dec.End.Equal(want) {
		t.Errorf("month=12 end = %v, want %v", dec.End, want)
	}
}

func TestToken_DayOneIsJanuaryFirst(t *testing.T) {
	span, _ := DayOfYear(1).Resolve(testNow)
	if want := date(testNow.Year(), 1, 1, 0, 0, 0); !span.Start.Equal(want) {
		t.Errorf("day=1 start = %v, want %v", span.Start, want)
	}
}

func TestToken_Idempotent(t *testing.T) {
	for _, s := range []string{"today", "last24h", "last7days", "week", "month=5"} {
		a, _ := mustParseToken(s).Resolve(testNow)
		b, _ := mustParseToken(s).Resolve(testNow)
		if a != b {
			t.Errorf("%s: %+v != %+v", s, a, b)
		}
	}
}

// week=n counts 7-day blocks from January 1st, which is not ISO-8601.
// 2021-01-01 was a Friday: ISO week 1 starts on 2021-01-04.
func TestToken_WeekIsOffsetFromJanuaryFirst(t *testing.T) {
	now := date(2021, 6, 1, 12, 0, 0)
	span, _ := WeekOf(1).Resolve(now)
	if want := date(2021, 1, 1, 0, 0, 0); !span.Start.Equal(want) {
		t.Errorf("week=1 start = %v, want %v", span.Start, want)
	}
	_, isoWeek := date(2021, 1, 1, 0, 0, 0).ISOWeek()
	if isoWeek != 53 {
		t.Errorf("ISO week of 2021-01-01 = %d, want 53", isoWeek)
	}
}

func TestBetween(t *testing.T) {
	start := date(2024, 1, 1, 0, 0, 0)
	end := date(2024, 1, 31, 0, 0, 0)

	tok, err := Between(start, end)
	if err != nil {
		t.Fatal(err)
	}
	span, err := tok.Resolve(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if !span.Start.Equal(start) || !span.End.Equal(end) {
		t.Errorf("span = %+v", span)
	}

	if _, err := Between(end, start); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("reversed range error = %v, want ErrInvalidArgument", err)
	}
	if _, err := Between(start, start); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty range error = %v, want ErrInvalidArgument", err)
	}
	if _, err := Between(time.Time{}, end); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing start error = %v, want ErrInvalidArgument", err)
	}
}

func TestToken_ResolveRejectsBadPayload(t *testing.T) {
	if _, err := MonthOf(13).Resolve(testNow); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("MonthOf(13) error = %v", err)
	}
	if _, err := (Token{Kind: Kind(99)}).Resolve(testNow); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown kind error = %v", err)
	}
}
