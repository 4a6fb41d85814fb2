package scheduler

import (
	"context"

	"github.com/jdziat/durable-reminders/pkg/core"
)

// OnFire registers a callback for each successful delivery.
func (s *Scheduler) OnFire(fn func(context.Context, core.Notification)) {
	s.hooksMu.Lock()
	s.onFire = append(s.onFire, fn)
	s.hooksMu.Unlock()
}

// OnNotifyFail registers a callback for each delivery the notifier rejected.
func (s *Scheduler) OnNotifyFail(fn func(context.Context, core.Notification, error)) {
	s.hooksMu.Lock()
	s.onNotifyFail = append(s.onNotifyFail, fn)
	s.hooksMu.Unlock()
}

// Events returns a channel for receiving scheduler events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (s *Scheduler) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	s.hooksMu.Lock()
	s.eventSubs = append(s.eventSubs, ch)
	s.hooksMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed. Emit sends while holding the subscriber lock,
// so no event reaches ch once Unsubscribe has returned.
func (s *Scheduler) Unsubscribe(ch <-chan core.Event) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	for i, sub := range s.eventSubs {
		if sub == ch {
			s.eventSubs = append(s.eventSubs[:i], s.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit sends e to every subscriber. Full subscriber buffers drop the event.
func (s *Scheduler) Emit(e core.Event) {
	s.hooksMu.RLock()
	defer s.hooksMu.RUnlock()

	for _, ch := range s.eventSubs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *Scheduler) callFireHooks(ctx context.Context, n core.Notification) {
	s.hooksMu.RLock()
	hooks := make([]func(context.Context, core.Notification), len(s.onFire))
	copy(hooks, s.onFire)
	s.hooksMu.RUnlock()

	for _, fn := range hooks {
		s.runHook("fire", n, func() { fn(ctx, n) })
	}
}

func (s *Scheduler) callNotifyFailHooks(ctx context.Context, n core.Notification, err error) {
	s.hooksMu.RLock()
	hooks := make([]func(context.Context, core.Notification, error), len(s.onNotifyFail))
	copy(hooks, s.onNotifyFail)
	s.hooksMu.RUnlock()

	for _, fn := range hooks {
		s.runHook("notify_fail", n, func() { fn(ctx, n, err) })
	}
}

// runHook calls a user hook and logs a panic instead of propagating it.
func (s *Scheduler) runHook(kind string, n core.Notification, call func()) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("hook panicked",
				"hook", kind,
				"reminder_id", n.ReminderID,
				"panic", rec)
		}
	}()
	call()
}
