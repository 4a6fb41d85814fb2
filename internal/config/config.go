// Package config loads reminderd configuration from defaults, an optional
// YAML file and REMINDERS_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are joined
// with a double underscore: REMINDERS_DATABASE__DSN sets database.dsn.
const EnvPrefix = "REMINDERS_"

// Config is the daemon configuration.
type Config struct {
	Log         LogConfig         `koanf:"log"`
	Database    DatabaseConfig    `koanf:"database"`
	Location    string            `koanf:"location"    validate:"required"`
	Scheduler   SchedulerConfig   `koanf:"scheduler"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
	Notify      NotifyConfig      `koanf:"notify"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// DatabaseConfig selects and tunes the record store.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"             validate:"oneof=sqlite postgres memory"`
	DSN             string        `koanf:"dsn"                validate:"required_unless=Driver memory"`
	MaxOpenConns    int           `koanf:"max_open_conns"     validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns"     validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"  validate:"min=0"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"min=0"`
}

// SchedulerConfig tunes the fire worker pool.
type SchedulerConfig struct {
	Concurrency   int           `koanf:"concurrency"    validate:"min=1,max=1000"`
	QueueSize     int           `koanf:"queue_size"     validate:"min=0"`
	NotifyTimeout time.Duration `koanf:"notify_timeout" validate:"min=1s,max=10m"`
}

// MaintenanceConfig schedules housekeeping. A zero ResyncInterval or an empty
// PruneCron disables that task.
type MaintenanceConfig struct {
	ResyncInterval time.Duration `koanf:"resync_interval" validate:"min=0"`
	PruneCron      string        `koanf:"prune_cron"`
	Retention      time.Duration `koanf:"retention"       validate:"min=1h"`
}

// NotifyConfig selects the notification sinks.
type NotifyConfig struct {
	Console  bool           `koanf:"console"`
	Telegram TelegramConfig `koanf:"telegram"`
}

// TelegramConfig configures the Telegram sink.
type TelegramConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Token      string `koanf:"token"        validate:"required_if=Enabled true"`
	ChatID     int64  `koanf:"chat_id"      validate:"required_if=Enabled true"`
	RatePerSec int    `koanf:"rate_per_sec" validate:"min=0,max=30"`
	Silent     bool   `koanf:"silent"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":                    "info",
		"log.format":                   "text",
		"database.driver":              "sqlite",
		"database.dsn":                 "reminders.db?_busy_timeout=5000",
		"database.max_open_conns":      8,
		"database.max_idle_conns":      4,
		"database.conn_max_lifetime":   "5m",
		"database.conn_max_idle_time":  "1m",
		"location":                     "UTC",
		"scheduler.concurrency":        4,
		"scheduler.queue_size":         64,
		"scheduler.notify_timeout":     "30s",
		"maintenance.resync_interval":  "5m",
		"maintenance.prune_cron":       "@daily",
		"maintenance.retention":        "720h",
		"notify.console":               true,
		"notify.telegram.enabled":      false,
		"notify.telegram.rate_per_sec": 20,
	}
}

// Load builds the configuration. An empty path skips the file; a path that
// does not exist is reported and skipped.
func Load(path string) (*Config, error) {
	startTime := time.Now()

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
			slog.Info("configuration file not found, using defaults", "path", path)
		} else {
			slog.Debug("configuration file loaded", "path", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded",
		"database_driver", cfg.Database.Driver,
		"location", cfg.Location,
		"concurrency", cfg.Scheduler.Concurrency,
		"duration_ms", time.Since(startTime).Milliseconds())
	return cfg, nil
}

// Validate checks field constraints and that Location names a real zone.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		return fmt.Errorf("invalid configuration: location %q: %w", c.Location, err)
	}
	return nil
}

// Loc returns the configured time zone, falling back to UTC.
func (c *Config) Loc() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// envKey maps REMINDERS_DATABASE__MAX_OPEN_CONNS to database.max_open_conns.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
