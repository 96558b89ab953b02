package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// NewMySQLStore opens a MySQL connection and runs migrations. The DSN uses
// the go-sql-driver format; parseTime and loc are forced so DATETIME columns
// round-trip as UTC instants.
func NewMySQLStore(dsn string) (*SQLStore, error) {
	db, err := openMySQL(dsn)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db, dialectMySQL); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLStore(db, dialectMySQL), nil
}

// normalizeMySQLDSN parses dsn and sets the options the store relies on.
func normalizeMySQLDSN(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg, nil
}

func openMySQL(dsn string) (*sql.DB, error) {
	cfg, err := normalizeMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening mysql: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	return db, nil
}

// RedactMySQLDSN masks the password in a MySQL DSN for safe display.
func RedactMySQLDSN(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "***"
	}
	return cfg.FormatDSN()
}
