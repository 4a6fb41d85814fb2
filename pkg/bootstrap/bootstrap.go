// Package bootstrap re-arms stored reminders after a process start.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdziat/durable-reminders/pkg/core"
)

// Scheduler is the part of the scheduler Bootstrap needs.
type Scheduler interface {
	Schedule(reminderID int64, due time.Time) bool
}

// Result summarises a bootstrap pass.
type Result struct {
	// Scheduled counts reminders that got a new timer.
	Scheduled int
	// AlreadyArmed counts future reminders whose occurrence was already armed.
	AlreadyArmed int
	// Skipped counts reminders whose schedule time is not after now.
	Skipped int
}

// Option configures a bootstrap pass.
type Option interface {
	Apply(*Options)
}

// Options holds bootstrap configuration.
type Options struct {
	Logger *slog.Logger
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// WithLogger sets the logger used to report skipped reminders.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	})
}

// Bootstrap reads every stored reminder and schedules those due strictly
// after now. Past-due reminders are left unscheduled: they are counted and
// logged, not fired late. Running it again is safe because the scheduler
// ignores occurrences it already holds.
func Bootstrap(ctx context.Context, store core.Storage, s Scheduler, now time.Time, opts ...Option) (Result, error) {
	o := Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt.Apply(&o)
	}

	reminders, err := store.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("bootstrap: list reminders: %w", err)
	}

	var res Result
	for _, r := range reminders {
		if !r.ScheduleTime.After(now) {
			res.Skipped++
			o.Logger.Debug("skipping past-due reminder",
				"reminder_id", r.ID,
				"schedule_time", r.ScheduleTime)
			continue
		}
		if s.Schedule(r.ID, r.ScheduleTime) {
			res.Scheduled++
		} else {
			res.AlreadyArmed++
		}
	}

	o.Logger.Info("bootstrap complete",
		"total", len(reminders),
		"scheduled", res.Scheduled,
		"already_armed", res.AlreadyArmed,
		"skipped", res.Skipped)
	return res, nil
}
