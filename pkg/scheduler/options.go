package scheduler

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jdziat/durable-reminders/pkg/security"
	"github.com/jdziat/durable-reminders/pkg/worker"
)

// Config holds scheduler configuration.
type Config struct {
	Clock         clockwork.Clock
	Logger        *slog.Logger
	Concurrency   int
	QueueSize     int
	NotifyTimeout time.Duration
	Retry         worker.RetryConfig
	InstanceID    string
}

// Option configures a Scheduler.
type Option interface {
	Apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) Apply(c *Config) { f(c) }

// WithClock sets the clock used for due-time checks and timers.
// Tests pass a clockwork fake clock.
func WithClock(c clockwork.Clock) Option {
	return optionFunc(func(cfg *Config) {
		if c != nil {
			cfg.Clock = c
		}
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(cfg *Config) {
		if l != nil {
			cfg.Logger = l
		}
	})
}

// Concurrency sets how many fires may run at once.
// Values are clamped to [1, MaxConcurrency].
func Concurrency(n int) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Concurrency = security.ClampConcurrency(n)
	})
}

// QueueSize sets how many due fires may wait for a free worker before the
// dispatcher blocks.
func QueueSize(n int) Option {
	return optionFunc(func(cfg *Config) {
		if n < 0 {
			n = 0
		}
		cfg.QueueSize = n
	})
}

// NotifyTimeout bounds a single notifier call. Zero disables the bound.
func NotifyTimeout(d time.Duration) Option {
	return optionFunc(func(cfg *Config) {
		if d < 0 {
			d = 0
		}
		cfg.NotifyTimeout = d
	})
}

// WithRetry sets the retry policy for storage calls made while firing.
func WithRetry(rc worker.RetryConfig) Option {
	return optionFunc(func(cfg *Config) {
		if rc.MaxAttempts < 1 {
			rc.MaxAttempts = 1
		}
		cfg.Retry = rc
	})
}

// InstanceID sets the identifier reported to notifiers via firectx.
// Defaults to a random UUID.
func InstanceID(id string) Option {
	return optionFunc(func(cfg *Config) {
		if id != "" {
			cfg.InstanceID = id
		}
	})
}
