// Package firectx gives notification sinks access to the occurrence being fired.
package firectx

import (
	"context"

	"github.com/jdziat/durable-reminders/pkg/core"
)

type fireKey struct{}

// Fire describes the occurrence a notifier is delivering.
type Fire struct {
	Key         core.OccurrenceKey
	DeliveryID  string
	SchedulerID string
}

// WithFire adds fire details to a context.Context.
func WithFire(ctx context.Context, f *Fire) context.Context {
	return context.WithValue(ctx, fireKey{}, f)
}

// FromContext returns the current Fire, or nil if not inside a fire.
func FromContext(ctx context.Context) *Fire {
	if f, ok := ctx.Value(fireKey{}).(*Fire); ok {
		return f
	}
	return nil
}

// KeyFromContext returns the occurrence key being fired.
func KeyFromContext(ctx context.Context) (core.OccurrenceKey, bool) {
	f := FromContext(ctx)
	if f == nil {
		return core.OccurrenceKey{}, false
	}
	return f.Key, true
}

// DeliveryIDFromContext returns the per-fire delivery id, or empty string if
// not inside a fire. Sinks can use it to correlate log lines or deduplicate.
func DeliveryIDFromContext(ctx context.Context) string {
	f := FromContext(ctx)
	if f == nil {
		return ""
	}
	return f.DeliveryID
}
