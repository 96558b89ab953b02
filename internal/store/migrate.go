package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var sqliteMigrations embed.FS

//go:embed pgmigrations/*.sql
var pgMigrations embed.FS

//go:embed mysqlmigrations/*.sql
var mysqlMigrations embed.FS

type migrationSet struct {
	fsys    embed.FS
	dir     string
	dialect string
}

var migrationSets = map[dialect]migrationSet{
	dialectSQLite:   {sqliteMigrations, "migrations", "sqlite3"},
	dialectPostgres: {pgMigrations, "pgmigrations", "postgres"},
	dialectMySQL:    {mysqlMigrations, "mysqlmigrations", "mysql"},
}

// gooseFor points goose at the migration set for d.
func gooseFor(d dialect) (migrationSet, error) {
	m := migrationSets[d]
	goose.SetBaseFS(m.fsys)
	if err := goose.SetDialect(m.dialect); err != nil {
		return m, fmt.Errorf("setting goose dialect: %w", err)
	}
	return m, nil
}

func runMigrations(db *sql.DB, d dialect) error {
	m, err := gooseFor(d)
	if err != nil {
		return err
	}
	if err := goose.Up(db, m.dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// MigrationStatus returns the applied schema version and the versions of
// migrations not yet applied.
func MigrationStatus(db *sql.DB, driver string) (current int64, pending []int64, err error) {
	d, err := parseDriver(driver)
	if err != nil {
		return 0, nil, err
	}
	m, err := gooseFor(d)
	if err != nil {
		return 0, nil, err
	}

	current, err = goose.GetDBVersion(db)
	if err != nil {
		return 0, nil, fmt.Errorf("getting db version: %w", err)
	}
	all, err := goose.CollectMigrations(m.dir, 0, goose.MaxVersion)
	if err != nil {
		return 0, nil, fmt.Errorf("collecting migrations: %w", err)
	}
	for _, mig := range all {
		if mig.Version > current {
			pending = append(pending, mig.Version)
		}
	}
	return current, pending, nil
}

func parseDriver(driver string) (dialect, error) {
	switch driver {
	case "sqlite":
		return dialectSQLite, nil
	case "postgres":
		return dialectPostgres, nil
	case "mysql":
		return dialectMySQL, nil
	}
	return 0, fmt.Errorf("unknown storage driver: %s", driver)
}

// OpenDB opens a connection for driver without running migrations.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	d, err := parseDriver(driver)
	if err != nil {
		return nil, err
	}
	switch d {
	case dialectPostgres:
		return openPostgres(dsn)
	case dialectMySQL:
		return openMySQL(dsn)
	}
	return openSQLite(dsn)
}
