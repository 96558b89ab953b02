package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/chadmayfield/wxlogd/internal/ingest"
	"github.com/chadmayfield/wxlogd/internal/weather"
)

var (
	errServerError = errors.New("peer server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// HTTPConfig configures an HTTPSink.
type HTTPConfig struct {
	URL             string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// HTTPSink posts readings to another wxlogd instance in the station's own
// payload format. Consecutive failures open a circuit breaker so an
// unreachable peer costs nothing until the cooldown elapses.
type HTTPSink struct {
	url     string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPSink creates an HTTPSink.
func NewHTTPSink(cfg HTTPConfig) *HTTPSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 60 * time.Second
	}
	failures := cfg.BreakerFailures
	return &HTTPSink{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mirror-http",
			Timeout: cfg.BreakerCooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
		}),
	}
}

func (s *HTTPSink) Name() string { return "http" }

// State returns the circuit breaker state.
func (s *HTTPSink) State() string { return s.circuit.State().String() }

func (s *HTTPSink) Send(ctx context.Context, r weather.Reading) error {
	body, err := json.Marshal(ingest.PayloadOf(r))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	_, err = s.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	return err
}

func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
