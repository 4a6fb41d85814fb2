package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jdziat/durable-reminders/pkg/core"
	"github.com/jdziat/durable-reminders/pkg/registry"
	"github.com/jdziat/durable-reminders/pkg/worker"
)

// ErrAlreadyRunning is returned by Run when the dispatcher is already active.
var ErrAlreadyRunning = errors.New("reminders: scheduler is already running")

// Scheduler owns the pending occurrences of every reminder in this process.
type Scheduler struct {
	config   Config
	store    core.Storage
	notifier core.Notifier
	clock    clockwork.Clock
	logger   *slog.Logger
	registry *registry.Registry

	mu      sync.Mutex
	queue   taskHeap
	wake    chan struct{}
	running bool

	hooksMu      sync.RWMutex
	onFire       []func(context.Context, core.Notification)
	onNotifyFail []func(context.Context, core.Notification, error)
	eventSubs    []chan core.Event
}

// New creates a scheduler that loads reminders from store and delivers them
// to notifier. It panics if store or notifier is nil.
func New(store core.Storage, notifier core.Notifier, opts ...Option) *Scheduler {
	if store == nil {
		panic("scheduler: nil storage")
	}
	if notifier == nil {
		panic("scheduler: nil notifier")
	}

	config := Config{
		Clock:         clockwork.NewRealClock(),
		Logger:        slog.Default(),
		Concurrency:   4,
		QueueSize:     64,
		NotifyTimeout: 30 * time.Second,
		Retry:         worker.DefaultRetryConfig(),
		InstanceID:    uuid.New().String(),
	}
	for _, opt := range opts {
		opt.Apply(&config)
	}

	return &Scheduler{
		config:   config,
		store:    store,
		notifier: notifier,
		clock:    config.Clock,
		logger:   config.Logger.With("scheduler_id", config.InstanceID),
		registry: registry.New(),
		wake:     make(chan struct{}, 1),
	}
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return s.config
}

// Clock returns the clock the scheduler measures due times against.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Schedule arms a timer for the reminder's occurrence at due.
//
// Nothing happens when due is not strictly after the scheduler's current time
// or when the same occurrence is already armed. It reports whether a new
// timer was armed.
func (s *Scheduler) Schedule(reminderID int64, due time.Time) bool {
	if !due.After(s.clock.Now()) {
		return false
	}

	t := &task{
		key:   core.NewOccurrenceKey(reminderID, due),
		due:   due,
		index: -1,
		owner: s,
	}
	if !s.registry.Register(t.key, t) {
		s.logger.Debug("occurrence already scheduled", "reminder_id", reminderID, "due", t.key.Due())
		return false
	}

	s.mu.Lock()
	heap.Push(&s.queue, t)
	s.mu.Unlock()
	s.signal()

	s.logger.Debug("occurrence scheduled", "reminder_id", reminderID, "due", t.key.Due())
	s.Emit(&core.OccurrenceScheduled{Key: t.key, Timestamp: s.clock.Now()})
	return true
}

// Cancel removes every pending occurrence of the reminder and returns how
// many were removed. A fire already running is not interrupted; it aborts on
// its own once it finds the reminder gone.
func (s *Scheduler) Cancel(reminderID int64) int {
	keys := s.registry.CancelAllFor(reminderID)
	now := s.clock.Now()
	for _, key := range keys {
		s.Emit(&core.OccurrenceCancelled{Key: key, Timestamp: now})
	}
	if len(keys) > 0 {
		s.logger.Debug("occurrences cancelled", "reminder_id", reminderID, "count", len(keys))
	}
	return len(keys)
}

// Pending returns the number of occurrences that are armed or firing.
func (s *Scheduler) Pending() int {
	return s.registry.Len()
}

// PendingKeys returns a snapshot of the armed or firing occurrences.
func (s *Scheduler) PendingKeys() []core.OccurrenceKey {
	return s.registry.Keys()
}

// IsScheduled reports whether the occurrence at due is armed or firing.
func (s *Scheduler) IsScheduled(reminderID int64, due time.Time) bool {
	return s.registry.Has(core.NewOccurrenceKey(reminderID, due))
}

// Run dispatches due occurrences until ctx is cancelled. Fires run on a
// worker pool that is drained before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	pool := worker.NewPool(
		worker.Concurrency(s.config.Concurrency),
		worker.QueueSize(s.config.QueueSize),
		worker.WithLogger(s.logger),
	)
	pool.Start(ctx)
	defer pool.Stop()

	s.logger.Info("scheduler started", "pending", s.Pending(), "concurrency", s.config.Concurrency)

	for {
		due, wait, hasNext := s.popDue()

		for _, t := range due {
			if t.cancelled.Load() {
				continue
			}
			key := t.key
			if err := pool.Submit(ctx, func(ctx context.Context) { s.Fire(ctx, key) }); err != nil {
				s.registry.Deregister(key)
				s.logger.Info("scheduler stopped", "reason", err)
				return nil
			}
		}

		if !hasNext {
			select {
			case <-ctx.Done():
				s.logger.Info("scheduler stopped", "reason", ctx.Err())
				return nil
			case <-s.wake:
			}
			continue
		}

		timer := s.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped", "reason", ctx.Err())
			return nil
		case <-s.wake:
		case <-timer.Chan():
		}
		timer.Stop()
	}
}

// popDue removes every task whose due time has passed and returns them in
// order, together with the delay until the next remaining task.
func (s *Scheduler) popDue() ([]*task, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var due []*task
	for s.queue.Len() > 0 && !s.queue[0].due.After(now) {
		due = append(due, heap.Pop(&s.queue).(*task))
	}
	if s.queue.Len() == 0 {
		return due, 0, false
	}
	return due, s.queue[0].due.Sub(now), true
}

// remove drops t from the heap if it is still queued.
func (s *Scheduler) remove(t *task) {
	s.mu.Lock()
	if t.index >= 0 && t.index < s.queue.Len() && s.queue[t.index] == t {
		heap.Remove(&s.queue, t.index)
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
