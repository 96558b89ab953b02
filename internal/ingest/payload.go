package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

// TimestampLayout is the UTC timestamp format sent by the station.
const TimestampLayout = "2006-01-02T15:04:05Z"

// maxPayloadBytes bounds the request body.
const maxPayloadBytes = 64 << 10

// Payload is the body of POST /weather-data.
type Payload struct {
	Timestamp string   `json:"timestamp" validate:"required"`
	Readings  Readings `json:"readings"`
}

// Readings are the raw sensor values. Pointers distinguish a missing key
// from a zero reading.
type Readings struct {
	Temperature   *float64 `json:"temperature" validate:"required"`
	Pressure      *float64 `json:"pressure" validate:"required"`
	Humidity      *float64 `json:"humidity" validate:"required,gte=0"`
	Rain          *float64 `json:"rain" validate:"required,gte=0"`
	RainPerSecond *float64 `json:"rain_per_second" validate:"required,gte=0"`
	Luminance     *float64 `json:"luminance" validate:"required,gte=0"`
	WindSpeed     *float64 `json:"wind_speed" validate:"required,gte=0"`
	WindDirection *float64 `json:"wind_direction" validate:"required,gte=0,lt=360"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParsePayload decodes and validates a payload from r.
func ParsePayload(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(io.LimitReader(r, maxPayloadBytes)).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", weather.ErrInvalidArgument, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every field is present and in range.
func (p *Payload) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("%w: %s", weather.ErrInvalidArgument, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", weather.ErrInvalidArgument, err)
	}
	if _, err := p.Time(); err != nil {
		return err
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Payload.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be < %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// Time parses the payload timestamp as UTC.
func (p *Payload) Time() (time.Time, error) {
	t, err := time.Parse(TimestampLayout, p.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q is not of the form %s", weather.ErrInvalidArgument, p.Timestamp, TimestampLayout)
	}
	return t, nil
}

// Reading converts the payload to a reading stamped in loc, with the
// calendar fields derived from the local time.
func (p *Payload) Reading(loc *time.Location) (weather.Reading, error) {
	if err := p.Validate(); err != nil {
		return weather.Reading{}, err
	}
	t, _ := p.Time()
	rd := p.Readings
	r := weather.Reading{
		Timestamp:     t.In(loc),
		Temperature:   *rd.Temperature,
		Pressure:      *rd.Pressure,
		Humidity:      *rd.Humidity,
		Rain:          *rd.Rain,
		RainRate:      *rd.RainPerSecond,
		Luminance:     *rd.Luminance,
		WindSpeed:     *rd.WindSpeed,
		WindDirection: *rd.WindDirection,
	}
	weather.CalendarOf(r.Timestamp).Apply(&r)
	return r, nil
}

// PayloadOf renders r in the wire form accepted by POST /weather-data.
func PayloadOf(r weather.Reading) Payload {
	return Payload{
		Timestamp: r.Timestamp.UTC().Format(TimestampLayout),
		Readings: Readings{
			Temperature:   ptr(r.Temperature),
			Pressure:      ptr(r.Pressure),
			Humidity:      ptr(r.Humidity),
			Rain:          ptr(r.Rain),
			RainPerSecond: ptr(r.RainRate),
			Luminance:     ptr(r.Luminance),
			WindSpeed:     ptr(r.WindSpeed),
			WindDirection: ptr(r.WindDirection),
		},
	}
}

func ptr(v float64) *float64 { return &v }
