package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a time range token.
type Kind int

const (
	KindLatest Kind = iota
	KindFirst
	KindAll
	KindToday
	KindYesterday
	KindLast24h
	KindLast7Days
	KindDayOfYear
	KindWeek
	KindWeekOf
	KindMonth
	KindMonthOf
	KindYear
	KindYearOf
	KindBetween
)

var kindNames = map[Kind]string{
	KindLatest:    "latest",
	KindFirst:     "first",
	KindAll:       "all",
	KindToday:     "today",
	KindYesterday: "yesterday",
	KindLast24h:   "last24h",
	KindLast7Days: "last7days",
	KindDayOfYear: "day",
	KindWeek:      "week",
	KindWeekOf:    "week",
	KindMonth:     "month",
	KindMonthOf:   "month",
	KindYear:      "year",
	KindYearOf:    "year",
	KindBetween:   "between",
}

// String returns the token name of k.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a parsed time range. N carries the numeric payload of the
// day=, week=, month= and year= forms; Start and End are set for KindBetween.
type Token struct {
	Kind  Kind
	N     int
	Start time.Time
	End   time.Time
}

// Span is a resolved interval. Both bounds are inclusive when querying the
// store; period ends sit one second before the next period starts. A zero
// Span means no filtering.
type Span struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether s carries no bounds.
func (s Span) IsZero() bool {
	return s.Start.IsZero() && s.End.IsZero()
}

// Duration returns End - Start.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Token constructors for the parameterized forms.

func DayOfYear(n int) Token { return Token{Kind: KindDayOfYear, N: n} }
func WeekOf(n int) Token    { return Token{Kind: KindWeekOf, N: n} }
func MonthOf(n int) Token   { return Token{Kind: KindMonthOf, N: n} }
func YearOf(n int) Token    { return Token{Kind: KindYearOf, N: n} }

// Between returns an explicit range token. start must be before end.
func Between(start, end time.Time) (Token, error) {
	t := Token{Kind: KindBetween, Start: start, End: end}
	if err := t.validate(); err != nil {
		return Token{}, err
	}
	return t, nil
}

var simpleTokens = map[string]Kind{
	"latest":    KindLatest,
	"first":     KindFirst,
	"all":       KindAll,
	"today":     KindToday,
	"yesterday": KindYesterday,
	"last24h":   KindLast24h,
	"last7days": KindLast7Days,
	"week":      KindWeek,
	"month":     KindMonth,
	"year":      KindYear,
}

var paramTokens = map[string]Kind{
	"day":   KindDayOfYear,
	"week":  KindWeekOf,
	"month": KindMonthOf,
	"year":  KindYearOf,
}

// ParseToken parses a symbolic time range such as "today", "week=3" or "year=2024".
func ParseToken(s string) (Token, error) {
	name, arg, hasArg := strings.Cut(s, "=")
	if !hasArg {
		if k, ok := simpleTokens[name]; ok {
			return Token{Kind: k}, nil
		}
		return Token{}, fmt.Errorf("%w: unknown time range %q", ErrInvalidArgument, s)
	}

	k, ok := paramTokens[name]
	if !ok {
		return Token{}, fmt.Errorf("%w: unknown time range %q", ErrInvalidArgument, s)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %s number %q is not an integer", ErrInvalidArgument, name, arg)
	}

	t := Token{Kind: k, N: n}
	if err := t.validate(); err != nil {
		return Token{}, err
	}
	return t, nil
}

func (t Token) validate() error {
	switch t.Kind {
	case KindDayOfYear:
		if t.N < 1 || t.N > 366 {
			return fmt.Errorf("%w: day number %d out of range 1-366", ErrInvalidArgument, t.N)
		}
	case KindWeekOf:
		if t.N < 1 || t.N > 53 {
			return fmt.Errorf("%w: week number %d out of range 1-53", ErrInvalidArgument, t.N)
		}
	case KindMonthOf:
		if t.N < 1 || t.N > 12 {
			return fmt.Errorf("%w: invalid month number %d", ErrInvalidArgument, t.N)
		}
	case KindYearOf:
		if t.N < 1 || t.N > 9998 {
			return fmt.Errorf("%w: year %d out of range", ErrInvalidArgument, t.N)
		}
	case KindBetween:
		if t.Start.IsZero() || t.End.IsZero() {
			return fmt.Errorf("%w: explicit range needs both start and end", ErrInvalidArgument)
		}
		if !t.Start.Before(t.End) {
			return fmt.Errorf("%w: start must be before end", ErrInvalidArgument)
		}
	default:
		if _, ok := kindNames[t.Kind]; !ok {
			return fmt.Errorf("%w: unknown token kind %d", ErrInvalidArgument, int(t.Kind))
		}
	}
	return nil
}

// Bounded reports whether t resolves to a time interval. latest, first and
// all select rows without one.
func (t Token) Bounded() bool {
	switch t.Kind {
	case KindLatest, KindFirst, KindAll:
		return false
	}
	return true
}

// String returns the token in its query-string form.
func (t Token) String() string {
	switch t.Kind {
	case KindDayOfYear, KindWeekOf, KindMonthOf, KindYearOf:
		return fmt.Sprintf("%s=%d", t.Kind, t.N)
	case KindBetween:
		return t.Start.Format(time.RFC3339) + ".." + t.End.Format(time.RFC3339)
	}
	return t.Kind.String()
}

// Resolve maps t to an interval anchored at now. Calendar boundaries are
// computed in now's location.
func (t Token) Resolve(now time.Time) (Span, error) {
	if err := t.validate(); err != nil {
		return Span{}, err
	}

	loc := now.Location()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	jan1 := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)

	switch t.Kind {
	case KindLatest, KindFirst, KindAll:
		return Span{}, nil
	case KindToday:
		return days(midnight, 1), nil
	case KindYesterday:
		return Span{Start: midnight.AddDate(0, 0, -1), End: midnight}, nil
	case KindLast24h:
		return Span{Start: now.Add(-24 * time.Hour), End: now}, nil
	case KindLast7Days:
		return Span{Start: midnight.AddDate(0, 0, -6), End: now}, nil
	case KindDayOfYear:
		return days(jan1.AddDate(0, 0, t.N-1), 1), nil
	case KindWeek:
		return days(midnight.AddDate(0, 0, -mondayIndex(now)), 7), nil
	case KindWeekOf:
		return days(jan1.AddDate(0, 0, (t.N-1)*7), 7), nil
	case KindMonth:
		return months(time.Date(y, m, 1, 0, 0, 0, 0, loc), 1), nil
	case KindMonthOf:
		return months(time.Date(y, time.Month(t.N), 1, 0, 0, 0, 0, loc), 1), nil
	case KindYear:
		return months(jan1, 12), nil
	case KindYearOf:
		return months(time.Date(t.N, time.January, 1, 0, 0, 0, 0, loc), 12), nil
	case KindBetween:
		return Span{Start: t.Start, End: t.End}, nil
	}
	return Span{}, fmt.Errorf("%w: unknown token kind %d", ErrInvalidArgument, int(t.Kind))
}

// days returns [start, start+n days - 1s].
func days(start time.Time, n int) Span {
	return Span{Start: start, End: start.AddDate(0, 0, n).Add(-time.Second)}
}

// months returns [start, start+n months - 1s].
func months(start time.Time, n int) Span {
	return Span{Start: start, End: start.AddDate(0, n, 0).Add(-time.Second)}
}
