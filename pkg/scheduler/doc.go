// Package scheduler arms, fires and re-arms reminder occurrences.
//
// A Scheduler keeps pending occurrences in a min-heap ordered by due time.
// A single dispatcher goroutine (Run) sleeps on the scheduler's clock until
// the earliest occurrence is due and hands it to a bounded worker pool, where
// Fire loads the reminder, notifies, and schedules the next occurrence of a
// repeating reminder.
//
// Basic usage:
//
//	s := scheduler.New(store, notify.Log(logger))
//	go s.Run(ctx)
//	s.Schedule(r.ID, r.ScheduleTime)
package scheduler
