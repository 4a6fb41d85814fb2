package worker

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
)

// RetryConfig bounds how often a failing storage call made during a fire is
// repeated, and how long to wait between attempts.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean a single call.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure. Zero retries
	// immediately.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait. Zero leaves it uncapped.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each failure. Values below 1
	// keep it constant.
	BackoffMultiplier float64

	// JitterFraction randomises each wait by up to ± this fraction.
	JitterFraction float64
}

// DefaultRetryConfig gives a sqlite "database is locked" a few seconds to clear.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// NoRetryConfig makes a single attempt.
func NoRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}

// Attempts returns the effective number of calls.
func (c RetryConfig) Attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// Backoff returns the un-jittered wait after the n-th failed attempt
// (n starts at 1).
func (c RetryConfig) Backoff(n int) time.Duration {
	if c.InitialBackoff <= 0 || n < 1 {
		return 0
	}
	mult := c.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(c.InitialBackoff)
	for i := 1; i < n; i++ {
		d *= mult
		if c.MaxBackoff > 0 && d >= float64(c.MaxBackoff) {
			return c.MaxBackoff
		}
	}
	if c.MaxBackoff > 0 && time.Duration(d) > c.MaxBackoff {
		return c.MaxBackoff
	}
	return time.Duration(d)
}

func (c RetryConfig) wait(n int) time.Duration {
	d := c.Backoff(n)
	if d <= 0 || c.JitterFraction <= 0 {
		return d
	}
	jittered := d + time.Duration(float64(d)*c.JitterFraction*(rand.Float64()*2-1))
	if jittered <= 0 {
		return d
	}
	return jittered
}

// Retry calls op until it succeeds, returns a non-retryable error or runs out
// of attempts. Waits are timed on clock so a fake clock controls them.
// It returns the last error from op, or ctx.Err() if ctx ends during a wait.
func Retry(ctx context.Context, clock clockwork.Clock, cfg RetryConfig, op func() error) error {
	attempts := cfg.Attempts()

	for n := 1; ; n++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) || n >= attempts {
			return err
		}

		d := cfg.wait(n)
		if d <= 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}

		timer := clock.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}
	}
}

// IsRetryableError reports whether err may clear on its own. Context errors
// never do.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
