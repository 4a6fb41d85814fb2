package core

import (
	"context"
	"time"
)

// Starter is the interface for long-running components.
type Starter interface {
	Run(ctx context.Context) error
}

// Storage defines the persistence layer for reminders.
type Storage interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Create inserts a reminder and assigns its ID.
	Create(ctx context.Context, r *Reminder) error

	// List returns every reminder ordered by schedule time ascending.
	List(ctx context.Context) ([]*Reminder, error)

	// Get returns the reminder, or nil with no error when it does not exist.
	Get(ctx context.Context, id int64) (*Reminder, error)

	// UpdateScheduleTime overwrites the next due time.
	// It reports false without error when the reminder does not exist.
	UpdateScheduleTime(ctx context.Context, id int64, next time.Time) (bool, error)

	// Delete removes a reminder. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id int64) error

	// DeleteExpired removes one-shot reminders due before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
