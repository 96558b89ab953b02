package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for wxlogd.
type Config struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	LogFormat  string        `mapstructure:"log_format"`
	Timezone   string        `mapstructure:"timezone"`
	CORSOrigin string        `mapstructure:"cors_origin"`
	Storage    StorageConfig `mapstructure:"storage"`
	Ingest     IngestConfig  `mapstructure:"ingest"`
	Mirror     MirrorConfig  `mapstructure:"mirror"`
}

// StorageConfig defines the database backend.
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"` // "sqlite", "postgres" or "mysql"
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
}

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MySQLConfig holds MySQL-specific configuration.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// IngestConfig controls how station payloads are accepted.
type IngestConfig struct {
	MaxWindSpeedMPH float64 `mapstructure:"max_wind_speed_mph"`
}

// MirrorConfig lists the secondary stores that receive a copy of each reading.
type MirrorConfig struct {
	Timeout time.Duration    `mapstructure:"timeout"`
	HTTP    HTTPMirrorConfig `mapstructure:"http"`
	Kafka   KafkaConfig      `mapstructure:"kafka"`
}

// HTTPMirrorConfig is a remote wxlogd (or compatible) ingestion endpoint.
type HTTPMirrorConfig struct {
	URL             string        `mapstructure:"url"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// KafkaConfig is a Kafka topic that receives readings as JSON.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Load reads configuration from flag path, env vars, then default file paths.
// Precedence: flag → $WXLOGD_CONFIG env → ~/.config/wxlogd/config.yaml → /etc/wxlogd/config.yaml
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("log_format", "json")
	v.SetDefault("timezone", "Europe/London")
	v.SetDefault("cors_origin", "")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "weather.db")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.mysql.dsn", "")
	v.SetDefault("ingest.max_wind_speed_mph", 120.0)
	v.SetDefault("mirror.timeout", 5*time.Second)
	v.SetDefault("mirror.http.url", "")
	v.SetDefault("mirror.http.breaker_failures", 5)
	v.SetDefault("mirror.http.breaker_cooldown", 60*time.Second)
	v.SetDefault("mirror.kafka.brokers", []string{})
	v.SetDefault("mirror.kafka.topic", "weather-readings")

	// Env var support: storage.mysql.dsn → WXLOGD_STORAGE_MYSQL_DSN.
	v.SetEnvPrefix("WXLOGD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if envPath := os.Getenv("WXLOGD_CONFIG"); envPath != "" {
		v.SetConfigFile(envPath)
	} else {
		// Try ~/.config/wxlogd/config.yaml first
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wxlogd"))
		}
		// Fall back to /etc/wxlogd/config.yaml
		v.AddConfigPath("/etc/wxlogd")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		// Warn if config file is world-readable; it may carry database passwords.
		if cfgPath := v.ConfigFileUsed(); cfgPath != "" {
			if info, err := os.Stat(cfgPath); err == nil {
				perm := info.Mode().Perm()
				if perm&0004 != 0 {
					slog.Warn("config file is world-readable", "path", cfgPath, "permissions", fmt.Sprintf("%04o", perm))
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is complete and correct.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for sqlite driver")
		}
		dir := filepath.Dir(c.Storage.SQLite.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("creating storage directory %q: %w", dir, err)
			}
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for postgres driver")
		}
	case "mysql":
		if c.Storage.MySQL.DSN == "" {
			return fmt.Errorf("storage.mysql.dsn is required for mysql driver")
		}
	default:
		return fmt.Errorf("storage.driver must be 'sqlite', 'postgres' or 'mysql', got %q", c.Storage.Driver)
	}

	// Validate listen_addr.
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr %q is not a valid address: %w", c.ListenAddr, err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Ingest.MaxWindSpeedMPH <= 0 {
		return fmt.Errorf("ingest.max_wind_speed_mph must be positive, got %v", c.Ingest.MaxWindSpeedMPH)
	}

	if c.Mirror.Enabled() && c.Mirror.Timeout <= 0 {
		return fmt.Errorf("mirror.timeout must be positive when a mirror is configured")
	}
	if len(c.Mirror.Kafka.Brokers) > 0 && c.Mirror.Kafka.Topic == "" {
		return fmt.Errorf("mirror.kafka.topic is required when brokers are set")
	}

	return nil
}

// Location loads the station time zone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = "Local"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Enabled reports whether any secondary store is configured.
func (m MirrorConfig) Enabled() bool {
	return m.HTTP.URL != "" || len(m.Kafka.Brokers) > 0
}

// DSN returns the appropriate DSN for the configured storage driver.
func (c *Config) DSN() string {
	switch c.Storage.Driver {
	case "sqlite":
		return c.Storage.SQLite.Path
	case "postgres":
		return c.Storage.Postgres.DSN
	case "mysql":
		return c.Storage.MySQL.DSN
	default:
		return ""
	}
}
