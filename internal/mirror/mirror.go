package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

// Sink is a secondary store that receives copies of stored readings.
type Sink interface {
	Name() string
	Send(ctx context.Context, r weather.Reading) error
	Close() error
}

// stateReporter is implemented by sinks guarded by a circuit breaker.
type stateReporter interface {
	State() string
}

// SinkStatus tracks delivery to one sink.
type SinkStatus struct {
	Name       string    `json:"name"`
	Sent       int       `json:"sent"`
	ErrorCount int       `json:"error_count"`
	LastError  string    `json:"last_error,omitempty"`
	LastSentAt time.Time `json:"last_sent_at,omitempty"`
	State      string    `json:"state,omitempty"`
}

// Mirror fans readings out to every configured sink.
type Mirror struct {
	sinks  []Sink
	logger *slog.Logger

	mu       sync.RWMutex
	statuses map[string]*SinkStatus
}

// New creates a Mirror over sinks.
func New(logger *slog.Logger, sinks ...Sink) *Mirror {
	m := &Mirror{
		sinks:    sinks,
		logger:   logger,
		statuses: make(map[string]*SinkStatus, len(sinks)),
	}
	for _, s := range sinks {
		m.statuses[s.Name()] = &SinkStatus{Name: s.Name()}
	}
	return m
}

// Len returns the number of sinks.
func (m *Mirror) Len() int { return len(m.sinks) }

// Send delivers r to every sink concurrently. A failing sink does not stop
// the others; all failures are joined into the returned error.
func (m *Mirror) Send(ctx context.Context, r weather.Reading) error {
	errs := make([]error, len(m.sinks))
	var wg sync.WaitGroup
	for i, s := range m.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Send(ctx, r)
			m.record(s.Name(), err)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (m *Mirror) record(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[name]
	if !ok {
		return
	}
	if err != nil {
		s.ErrorCount++
		s.LastError = err.Error()
		return
	}
	s.Sent++
	s.LastSentAt = time.Now().UTC()
}

// Status returns a snapshot of all sink statuses in configuration order.
func (m *Mirror) Status() []SinkStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]SinkStatus, 0, len(m.sinks))
	for _, sink := range m.sinks {
		status := *m.statuses[sink.Name()]
		if sr, ok := sink.(stateReporter); ok {
			status.State = sr.State()
		}
		result = append(result, status)
	}
	return result
}

// Close closes every sink.
func (m *Mirror) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
