// Package maintenance runs periodic housekeeping next to the scheduler.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jdziat/durable-reminders/pkg/bootstrap"
	"github.com/jdziat/durable-reminders/pkg/core"
	"github.com/jdziat/durable-reminders/pkg/schedule"
)

// Func is one housekeeping pass.
type Func func(ctx context.Context) error

// Task is a named housekeeping function and when to run it.
type Task struct {
	Name     string
	Schedule schedule.Schedule
	Run      Func
}

// Option configures a Runner.
type Option interface {
	applyRunner(*Runner)
}

type optionFunc func(*Runner)

func (f optionFunc) applyRunner(r *Runner) { f(r) }

// WithClock sets the clock tasks are timed against.
func WithClock(c clockwork.Clock) Option {
	return optionFunc(func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	})
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	})
}

// Runner fires registered tasks on their schedules. Tasks run one at a time
// on the Run goroutine; a failing task is logged and retried at its next slot.
type Runner struct {
	clock  clockwork.Clock
	logger *slog.Logger

	mu    sync.Mutex
	tasks []Task
}

// NewRunner creates an empty runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.applyRunner(r)
	}
	return r
}

// Add registers a task. Tasks added after Run started are picked up on the
// next wake-up.
func (r *Runner) Add(name string, sched schedule.Schedule, fn Func) {
	r.mu.Lock()
	r.tasks = append(r.tasks, Task{Name: name, Schedule: sched, Run: fn})
	r.mu.Unlock()
}

// Tasks returns a snapshot of the registered tasks.
func (r *Runner) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Run executes tasks until ctx is cancelled. The first run of every task is
// one schedule step after Run starts.
func (r *Runner) Run(ctx context.Context) error {
	next := make(map[string]time.Time)
	start := r.clock.Now()

	for {
		tasks := r.Tasks()
		if len(tasks) == 0 {
			<-ctx.Done()
			return nil
		}

		var earliest time.Time
		for _, t := range tasks {
			at, ok := next[t.Name]
			if !ok {
				at = t.Schedule.Next(start)
				next[t.Name] = at
			}
			if earliest.IsZero() || at.Before(earliest) {
				earliest = at
			}
		}

		timer := r.clock.NewTimer(earliest.Sub(r.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.Chan():
		}

		now := r.clock.Now()
		for _, t := range tasks {
			if next[t.Name].After(now) {
				continue
			}
			r.runTask(ctx, t)
			next[t.Name] = t.Schedule.Next(now)
		}
	}
}

func (r *Runner) runTask(ctx context.Context, t Task) {
	start := r.clock.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("maintenance task panicked", "task", t.Name, "panic", fmt.Sprint(rec))
		}
	}()

	if err := t.Run(ctx); err != nil {
		r.logger.Error("maintenance task failed", "task", t.Name, "error", err)
		return
	}
	r.logger.Debug("maintenance task finished", "task", t.Name, "duration", r.clock.Since(start))
}

// Resync re-runs bootstrap so reminders written by another process get armed.
// Occurrences the scheduler already holds are left alone.
func Resync(store core.Storage, s bootstrap.Scheduler, clock clockwork.Clock, logger *slog.Logger) Func {
	return func(ctx context.Context) error {
		_, err := bootstrap.Bootstrap(ctx, store, s, clock.Now(), bootstrap.WithLogger(logger))
		return err
	}
}

// Prune deletes one-shot reminders whose time passed more than retention ago.
func Prune(store core.Storage, retention time.Duration, clock clockwork.Clock, logger *slog.Logger) Func {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) error {
		n, err := store.DeleteExpired(ctx, clock.Now().Add(-retention))
		if err != nil {
			return fmt.Errorf("prune expired reminders: %w", err)
		}
		if n > 0 {
			logger.Info("pruned expired reminders", "count", n, "retention", retention)
		}
		return nil
	}
}
