package core

import "time"

// Event is the interface for all scheduler events.
type Event interface {
	eventMarker()
}

// OccurrenceScheduled is emitted when a timer is armed for an occurrence.
type OccurrenceScheduled struct {
	Key       OccurrenceKey
	Timestamp time.Time
}

func (*OccurrenceScheduled) eventMarker() {}

// OccurrenceFired is emitted after the notifier was invoked for an occurrence.
type OccurrenceFired struct {
	Key          OccurrenceKey
	Notification Notification
	Duration     time.Duration
	Timestamp    time.Time
}

func (*OccurrenceFired) eventMarker() {}

// OccurrenceSkipped is emitted when a fire finds its reminder deleted.
type OccurrenceSkipped struct {
	Key       OccurrenceKey
	Reason    string
	Timestamp time.Time
}

func (*OccurrenceSkipped) eventMarker() {}

// ReminderRescheduled is emitted when a repeating reminder advances.
type ReminderRescheduled struct {
	ReminderID int64
	Previous   time.Time
	Next       time.Time
	Armed      bool
	Timestamp  time.Time
}

func (*ReminderRescheduled) eventMarker() {}

// NotifyFailed is emitted when the notifier returned an error or panicked.
type NotifyFailed struct {
	Key       OccurrenceKey
	Error     error
	Timestamp time.Time
}

func (*NotifyFailed) eventMarker() {}

// OccurrenceCancelled is emitted for every pending timer removed by Cancel.
type OccurrenceCancelled struct {
	Key       OccurrenceKey
	Timestamp time.Time
}

func (*OccurrenceCancelled) eventMarker() {}
