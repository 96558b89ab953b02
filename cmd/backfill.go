package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/chadmayfield/wxlogd/internal/mirror"
	"github.com/chadmayfield/wxlogd/internal/store"
	"github.com/chadmayfield/wxlogd/internal/weather"
	"github.com/spf13/cobra"
)

var (
	bfRange string
	bfFrom  string
	bfTo    string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Replay stored readings to the configured mirrors",
	Long: `backfill resends readings from the primary store to every configured
secondary store, in 5-day chunks with a pause between chunks. Use it to catch
a mirror up after an outage. Select readings with --range (a time range token
such as week, month=3 or all) or with --from/--to dates.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&bfRange, "range", "", "time range token (e.g. yesterday, week=3, all)")
	backfillCmd.Flags().StringVar(&bfFrom, "from", "", "start date (YYYY-MM-DD)")
	backfillCmd.Flags().StringVar(&bfTo, "to", "", "end date (YYYY-MM-DD, default: now)")
	backfillCmd.MarkFlagsMutuallyExclusive("range", "from")
	backfillCmd.MarkFlagsOneRequired("range", "from")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := newMirror(cfg)
	if m == nil {
		return fmt.Errorf("no mirror configured: set mirror.http.url or mirror.kafka.brokers")
	}
	defer m.Close() //nolint:errcheck

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc).Truncate(time.Second)

	tok, err := backfillToken(bfRange, bfFrom, bfTo, now)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Storage.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	// Support context cancellation via signals.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("replaying readings", "time_range", tok.String(), "sinks", m.Len())

	sent, err := mirror.NewReplayer(s, m, slog.Default()).Replay(ctx, tok, now)
	slog.Info("replay finished", "sent", sent)
	return err
}

// backfillToken builds the replay range from either a token or a pair of
// dates. A --to date covers the whole day.
func backfillToken(rangeStr, from, to string, now time.Time) (weather.Token, error) {
	if rangeStr != "" {
		return weather.ParseToken(rangeStr)
	}

	loc := now.Location()
	start, err := time.ParseInLocation(time.DateOnly, from, loc)
	if err != nil {
		return weather.Token{}, fmt.Errorf("invalid --from date: %w", err)
	}
	end := now
	if to != "" {
		day, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return weather.Token{}, fmt.Errorf("invalid --to date: %w", err)
		}
		end = day.AddDate(0, 0, 1).Add(-time.Second)
	}
	return weather.Between(start, end)
}
