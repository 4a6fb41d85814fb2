package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jdziat/durable-reminders/pkg/core"
	"github.com/jdziat/durable-reminders/pkg/firectx"
	"github.com/jdziat/durable-reminders/pkg/schedule"
	"github.com/jdziat/durable-reminders/pkg/security"
	"github.com/jdziat/durable-reminders/pkg/worker"
)

// Fire delivers the occurrence identified by key and, for a repeating
// reminder, arms the next one.
//
// The stored record is authoritative: if the reminder was deleted after the
// timer was armed, Fire does nothing. Notifier failures are logged and never
// stop the reschedule. The key is deregistered whatever the outcome.
func (s *Scheduler) Fire(ctx context.Context, key core.OccurrenceKey) {
	defer s.registry.Deregister(key)

	if ctx.Err() != nil {
		return
	}

	var r *core.Reminder
	err := worker.Retry(ctx, s.clock, s.config.Retry, func() error {
		var err error
		r, err = s.store.Get(ctx, key.ReminderID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to load reminder for fire",
			"reminder_id", key.ReminderID,
			"due", key.Due(),
			"error", err)
		return
	}
	if r == nil {
		s.logger.Debug("reminder gone before fire", "reminder_id", key.ReminderID, "due", key.Due())
		s.Emit(&core.OccurrenceSkipped{Key: key, Reason: "reminder deleted", Timestamp: s.clock.Now()})
		return
	}

	n := core.Notification{
		ReminderID:     r.ID,
		MedicationName: r.MedicationName,
		Dosage:         r.Dosage,
		Due:            key.Due(),
	}

	fireCtx := firectx.WithFire(ctx, &firectx.Fire{
		Key:         key,
		DeliveryID:  uuid.New().String(),
		SchedulerID: s.config.InstanceID,
	})

	start := s.clock.Now()
	if err := s.deliver(fireCtx, n); err != nil {
		msg := security.SanitizeErrorMessage(err.Error())
		s.logger.Warn("notification failed",
			"reminder_id", r.ID,
			"due", key.Due(),
			"error", msg)
		s.callNotifyFailHooks(fireCtx, n, err)
		s.Emit(&core.NotifyFailed{Key: key, Error: err, Timestamp: s.clock.Now()})
	} else {
		s.logger.Info("reminder fired",
			"reminder_id", r.ID,
			"medication", r.MedicationName,
			"due", key.Due())
		s.callFireHooks(fireCtx, n)
		s.Emit(&core.OccurrenceFired{
			Key:          key,
			Notification: n,
			Duration:     s.clock.Since(start),
			Timestamp:    s.clock.Now(),
		})
	}

	if r.IsRepeating() {
		s.reschedule(ctx, r)
	}
}

// reschedule advances a repeating reminder from its stored schedule time,
// persists the new time and arms it.
func (s *Scheduler) reschedule(ctx context.Context, r *core.Reminder) {
	next, ok := schedule.NextOccurrence(r.ScheduleTime, r.RepeatMinutes)
	if !ok {
		return
	}

	var found bool
	err := worker.Retry(ctx, s.clock, s.config.Retry, func() error {
		var err error
		found, err = s.store.UpdateScheduleTime(ctx, r.ID, next)
		return err
	})
	if err != nil {
		s.logger.Error("failed to persist next occurrence",
			"reminder_id", r.ID,
			"next", next,
			"error", err)
		return
	}
	if !found {
		s.logger.Debug("reminder deleted during fire", "reminder_id", r.ID)
		return
	}

	armed := s.Schedule(r.ID, next)
	if !armed && !next.After(s.clock.Now()) {
		s.logger.Warn("next occurrence already past, not armed",
			"reminder_id", r.ID,
			"next", next)
	}

	s.Emit(&core.ReminderRescheduled{
		ReminderID: r.ID,
		Previous:   r.ScheduleTime,
		Next:       next,
		Armed:      armed,
		Timestamp:  s.clock.Now(),
	})
}

// deliver calls the notifier and waits at most NotifyTimeout for it. The
// sink runs on its own goroutine so one that ignores ctx only leaks that
// goroutine and never holds a pool worker past the deadline. A panic in the
// sink is returned as an error.
func (s *Scheduler) deliver(ctx context.Context, n core.Notification) error {
	if s.config.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.NotifyTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("notifier panic: %v", rec)
			}
		}()
		done <- s.notifier.Notify(ctx, n)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.logger.Warn("notifier ignored its deadline, abandoning delivery",
			"reminder_id", n.ReminderID,
			"timeout", s.config.NotifyTimeout)
		return fmt.Errorf("notify reminder %d: %w", n.ReminderID, ctx.Err())
	}
}
