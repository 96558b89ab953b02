package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

const (
	chunkDays   = 5
	requestPace = 2 * time.Second
)

// ReadingSource is the store as seen by the Replayer.
type ReadingSource interface {
	GetReadings(ctx context.Context, start, end time.Time) ([]weather.Reading, error)
	GetDataRange(ctx context.Context) (oldest, newest time.Time, err error)
}

// Sender receives replayed readings. *Mirror satisfies it.
type Sender interface {
	Send(ctx context.Context, r weather.Reading) error
}

// Replayer resends stored readings to the secondary stores, typically to
// fill a peer that was unreachable for a while.
type Replayer struct {
	source ReadingSource
	target Sender
	logger *slog.Logger
	pace   time.Duration
}

// NewReplayer creates a Replayer that reads in 5-day chunks with 2s pacing.
func NewReplayer(source ReadingSource, target Sender, logger *slog.Logger) *Replayer {
	return &Replayer{source: source, target: target, logger: logger, pace: requestPace}
}

// Replay resends the readings selected by tok, resolved against now.
// latest, first and all replay the whole table.
func (p *Replayer) Replay(ctx context.Context, tok weather.Token, now time.Time) (int, error) {
	span, err := tok.Resolve(now)
	if err != nil {
		return 0, err
	}
	if span.IsZero() {
		oldest, newest, err := p.source.GetDataRange(ctx)
		if err != nil {
			return 0, fmt.Errorf("getting data range: %w", err)
		}
		if oldest.IsZero() {
			p.logger.Info("no readings to replay")
			return 0, nil
		}
		span = weather.Span{Start: oldest, End: newest}
	}
	return p.ReplaySpan(ctx, span.Start, span.End)
}

// ReplaySpan resends readings with from <= timestamp <= to and returns how
// many were sent. It stops at the first failed send.
func (p *Replayer) ReplaySpan(ctx context.Context, from, to time.Time) (int, error) {
	// Calculate total chunks for progress logging.
	totalChunks := 0
	for cs := from; !cs.After(to); cs = cs.AddDate(0, 0, chunkDays) {
		totalChunks++
	}

	sent := 0
	chunkNum := 0
	for chunkStart := from; !chunkStart.After(to); {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		next := chunkStart.AddDate(0, 0, chunkDays)
		chunkEnd := next.Add(-time.Second)
		if chunkEnd.After(to) {
			chunkEnd = to
		}
		chunkNum++

		readings, err := p.source.GetReadings(ctx, chunkStart, chunkEnd)
		if err != nil {
			return sent, fmt.Errorf("fetching readings for %s to %s: %w",
				chunkStart.Format(time.DateOnly), chunkEnd.Format(time.DateOnly), err)
		}

		for _, r := range readings {
			if err := p.target.Send(ctx, r); err != nil {
				return sent, fmt.Errorf("replaying reading %d: %w", r.ID, err)
			}
			sent++
		}
		p.logger.Info("replayed chunk",
			"from", chunkStart.Format(time.DateOnly),
			"to", chunkEnd.Format(time.DateOnly),
			"readings", len(readings),
			"chunk", fmt.Sprintf("%d/%d", chunkNum, totalChunks),
		)

		chunkStart = next

		// Pace chunks so a recovering peer is not flooded.
		if !chunkStart.After(to) && p.pace > 0 {
			timer := time.NewTimer(p.pace)
			select {
			case <-ctx.Done():
				timer.Stop()
				return sent, ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.logger.Info("replay complete", "readings", sent)
	return sent, nil
}
