// Package worker provides the bounded goroutine pool that runs reminder fires.
package worker

import (
	"log/slog"

	"github.com/jdziat/durable-reminders/pkg/security"
)

// PoolOption configures a Pool.
type PoolOption interface {
	ApplyPool(*PoolConfig)
}

type poolOptionFunc func(*PoolConfig)

func (f poolOptionFunc) ApplyPool(c *PoolConfig) { f(c) }

// PoolConfig holds pool configuration.
type PoolConfig struct {
	Concurrency int
	QueueSize   int
	Logger      *slog.Logger
}

// Concurrency sets the number of worker goroutines.
// Values are clamped to [1, MaxConcurrency].
func Concurrency(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.Concurrency = security.ClampConcurrency(n)
	})
}

// QueueSize sets how many submitted tasks may wait for a free worker.
func QueueSize(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		if n < 0 {
			n = 0
		}
		c.QueueSize = n
	})
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l *slog.Logger) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		if l != nil {
			c.Logger = l
		}
	})
}
