// Package core provides the domain models and interfaces for the reminders package.
package core

import (
	"fmt"
	"time"
)

// Reminder is a persisted medication reminder.
//
// ScheduleTime always holds the next pending occurrence. It is overwritten in
// place each time a repeating reminder fires.
type Reminder struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	MedicationName string    `gorm:"size:255;not null"`
	Dosage         string    `gorm:"size:255;not null"`
	ScheduleTime   time.Time `gorm:"index;not null"`
	RepeatMinutes  *int
	CreatedAt      time.Time `gorm:"not null"`
}

// IsRepeating reports whether the reminder has a usable repeat interval.
func (r *Reminder) IsRepeating() bool {
	return r.RepeatMinutes != nil && *r.RepeatMinutes > 0
}

// Key returns the occurrence key for the reminder's current schedule time.
func (r *Reminder) Key() OccurrenceKey {
	return NewOccurrenceKey(r.ID, r.ScheduleTime)
}

// OccurrenceKey identifies one scheduled firing of a reminder.
// It is comparable and used directly as a map key.
type OccurrenceKey struct {
	ReminderID  int64
	DueUnixNano int64
}

// NewOccurrenceKey builds the key for a reminder due at the given instant.
// The key does not depend on the location attached to due.
func NewOccurrenceKey(reminderID int64, due time.Time) OccurrenceKey {
	return OccurrenceKey{ReminderID: reminderID, DueUnixNano: due.UnixNano()}
}

// Due returns the due instant in UTC.
func (k OccurrenceKey) Due() time.Time {
	return time.Unix(0, k.DueUnixNano).UTC()
}

func (k OccurrenceKey) String() string {
	return fmt.Sprintf("%d@%s", k.ReminderID, k.Due().Format(time.RFC3339))
}
