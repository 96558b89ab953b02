package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/chadmayfield/wxlogd/internal/api"
	"github.com/chadmayfield/wxlogd/internal/config"
	"github.com/chadmayfield/wxlogd/internal/ingest"
	"github.com/chadmayfield/wxlogd/internal/mirror"
	"github.com/chadmayfield/wxlogd/internal/store"
	"github.com/chadmayfield/wxlogd/internal/weather"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	listenAddr    string
	storageDriver string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wxlogd daemon (default command)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&storageDriver, "storage-driver", "", "storage driver (overrides config)")
	rootCmd.AddCommand(serveCmd)

	// Make serve the default command.
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides.
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if storageDriver != "" {
		cfg.Storage.Driver = storageDriver
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	slog.Info("starting wxlogd",
		"listen_addr", cfg.ListenAddr,
		"storage_driver", cfg.Storage.Driver,
		"timezone", loc.String(),
	)

	s, err := store.Open(cfg.Storage.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	slog.Info("database ready", "driver", cfg.Storage.Driver, "dsn", displayDSN(cfg))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := newMirror(cfg)
	var forward ingest.Forwarder
	if m != nil {
		forward = m
		slog.Info("mirroring readings", "sinks", m.Len())
	}

	svc := ingest.NewService(s, forward, ingest.Options{
		Location:        loc,
		MaxWindSpeedMPH: cfg.Ingest.MaxWindSpeedMPH,
		ForwardTimeout:  cfg.Mirror.Timeout,
	}, slog.Default())

	srv := api.NewServer(api.Config{
		Store:      s,
		Fetcher:    weather.NewFetcher(s, loc),
		Ingest:     svc,
		Mirror:     m,
		CORSOrigin: cfg.CORSOrigin,
		Logger:     slog.Default(),
	})
	srv.SetVersion(Version)
	srv.SetStorageInfo(cfg.Storage.Driver, cfg.Storage.SQLite.Path)

	slog.Info("wxlogd ready", "addr", cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.ListenAddr) })

	waitErr := g.Wait()
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		slog.Error("wxlogd exited with error", "error", waitErr)
	}

	// Always run graceful cleanup, even on error.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	if m != nil {
		if err := m.Close(); err != nil {
			slog.Warn("closing mirrors", "error", err)
		}
	}
	_ = s.Close()

	slog.Info("wxlogd shutdown complete")
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	return nil
}

// newMirror builds the configured secondary stores, or returns nil when
// there are none.
func newMirror(cfg *config.Config) *mirror.Mirror {
	if !cfg.Mirror.Enabled() {
		return nil
	}

	var sinks []mirror.Sink
	if cfg.Mirror.HTTP.URL != "" {
		sinks = append(sinks, mirror.NewHTTPSink(mirror.HTTPConfig{
			URL:             cfg.Mirror.HTTP.URL,
			Timeout:         cfg.Mirror.Timeout,
			BreakerFailures: cfg.Mirror.HTTP.BreakerFailures,
			BreakerCooldown: cfg.Mirror.HTTP.BreakerCooldown,
		}))
	}
	if len(cfg.Mirror.Kafka.Brokers) > 0 {
		sinks = append(sinks, mirror.NewKafkaSink(cfg.Mirror.Kafka.Brokers, cfg.Mirror.Kafka.Topic))
	}
	return mirror.New(slog.Default(), sinks...)
}

// displayDSN returns the configured DSN with any password masked.
func displayDSN(cfg *config.Config) string {
	switch cfg.Storage.Driver {
	case "postgres":
		return redactDSN(cfg.DSN())
	case "mysql":
		return store.RedactMySQLDSN(cfg.DSN())
	}
	return cfg.DSN()
}

// redactDSN masks the password in a PostgreSQL DSN for safe display.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
