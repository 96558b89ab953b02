package cmd

import (
	"fmt"
	"log/slog"

	"github.com/chadmayfield/wxlogd/internal/config"
	"github.com/chadmayfield/wxlogd/internal/store"
	"github.com/spf13/cobra"
)

var dryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if dryRun {
		slog.Info("dry run mode, showing pending migrations")
		return showPendingMigrations(cfg)
	}

	// Opening the store automatically runs migrations.
	s, err := store.Open(cfg.Storage.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	slog.Info("migrations complete", "driver", cfg.Storage.Driver)
	return nil
}

func showPendingMigrations(cfg *config.Config) error {
	db, err := store.OpenDB(cfg.Storage.Driver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	current, pending, err := store.MigrationStatus(db, cfg.Storage.Driver)
	if err != nil {
		return err
	}

	slog.Info("migration status",
		"current_version", current,
		"pending", pending,
		"driver", cfg.Storage.Driver,
	)
	return nil
}
