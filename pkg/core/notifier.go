package core

import (
	"context"
	"time"
)

// Notification is the payload handed to a Notifier when an occurrence fires.
type Notification struct {
	ReminderID     int64
	MedicationName string
	Dosage         string
	Due            time.Time
}

// Notifier delivers a due reminder somewhere a person will see it.
// Delivery is best effort: returned errors are logged, never retried.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
