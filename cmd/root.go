package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chadmayfield/wxlogd/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "wxlogd",
	Short: "Home weather station logger",
	Long: `wxlogd receives readings from a home weather station over HTTP, stores them
in SQLite, PostgreSQL or MySQL, optionally mirrors each reading to secondary
stores, and serves raw rows and aggregated summaries (hourly to monthly
buckets, rainfall, wind rose) for dashboards.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text or tint; overrides config)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	setupLogging(logFormat)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logFormat == "" {
		setupLogging(cfg.LogFormat)
	}
	return cfg, nil
}

func setupLogging(format string) {
	slog.SetDefault(newLogger(format, os.Stderr))
}

func newLogger(format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "tint":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
