package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

// Defaults for Options.
const (
	DefaultMaxWindSpeedMPH = 120
	DefaultForwardTimeout  = 5 * time.Second
)

// Saver persists a reading and returns its id.
type Saver interface {
	SaveReading(ctx context.Context, r *weather.Reading) (int64, error)
}

// Forwarder copies a stored reading to secondary stores.
type Forwarder interface {
	Send(ctx context.Context, r weather.Reading) error
}

// Options configures a Service.
type Options struct {
	Location        *time.Location
	MaxWindSpeedMPH float64
	ForwardTimeout  time.Duration
}

// Service turns station payloads into stored readings.
type Service struct {
	store   Saver
	forward Forwarder
	opts    Options
	logger  *slog.Logger

	maxWindSpeed float64 // m/s
}

// Result describes one ingested reading.
type Result struct {
	ID       int64
	Reading  weather.Reading
	Mirrored bool

	// MirrorErr is set when the reading was stored but a secondary store
	// could not be reached.
	MirrorErr error
}

// NewService creates a Service. forward may be nil.
func NewService(s Saver, forward Forwarder, opts Options, logger *slog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxWindSpeedMPH <= 0 {
		opts.MaxWindSpeedMPH = DefaultMaxWindSpeedMPH
	}
	if opts.ForwardTimeout <= 0 {
		opts.ForwardTimeout = DefaultForwardTimeout
	}
	return &Service{
		store:        s,
		forward:      forward,
		opts:         opts,
		logger:       logger,
		maxWindSpeed: weather.MPHToMetersPerSecond(opts.MaxWindSpeedMPH),
	}
}

// Ingest stores one reading. Wind speeds above the configured ceiling are
// recorded as 0. The insert happens once; its failure is returned wrapped in
// weather.ErrStoreUnavailable. Forwarding runs afterwards and never fails
// the call.
func (s *Service) Ingest(ctx context.Context, p *Payload) (*Result, error) {
	r, err := p.Reading(s.opts.Location)
	if err != nil {
		return nil, err
	}

	if r.WindSpeed > s.maxWindSpeed {
		s.logger.Warn("discarding implausible wind speed",
			"timestamp", r.Timestamp.Format(time.RFC3339),
			"wind_speed_mph", weather.MetersPerSecondToMPH(r.WindSpeed),
		)
		r.WindSpeed = 0
	}
	if !weather.IsCompassDegree(r.WindDirection) {
		s.logger.Warn("wind direction is not a compass point",
			"timestamp", r.Timestamp.Format(time.RFC3339),
			"wind_direction", r.WindDirection,
		)
	}

	id, err := s.store.SaveReading(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrStoreUnavailable, err)
	}
	r.ID = id

	res := &Result{ID: id, Reading: r}
	if s.forward != nil {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ForwardTimeout)
		defer cancel()
		if err := s.forward.Send(fctx, r); err != nil {
			s.logger.Warn("failed to forward reading", "id", id, "error", err)
			res.MirrorErr = err
		} else {
			res.Mirrored = true
		}
	}

	s.logger.Info("saved reading",
		"id", id,
		"timestamp", r.Timestamp.Format(time.RFC3339),
		"temp", fmt.Sprintf("%.1f°C", r.Temperature),
	)
	return res, nil
}
