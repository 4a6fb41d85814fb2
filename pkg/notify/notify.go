// Package notify provides the sinks a Scheduler delivers due reminders to.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/durable-reminders/pkg/core"
	"github.com/jdziat/durable-reminders/pkg/firectx"
	"github.com/jdziat/durable-reminders/pkg/security"
)

// Format renders a notification as a single human readable line.
// A nil loc renders the due time in UTC.
func Format(n core.Notification, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("[%s] Time to take %s (%s)",
		n.Due.In(loc).Format("2006-01-02 15:04"),
		security.SanitizeText(n.MedicationName),
		security.SanitizeText(n.Dosage))
}

// Func adapts fn to core.Notifier.
func Func(fn func(context.Context, core.Notification) error) core.Notifier {
	return core.NotifierFunc(fn)
}

type logNotifier struct {
	logger *slog.Logger
}

// Log returns a sink that writes each reminder to logger at info level.
func Log(logger *slog.Logger) core.Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &logNotifier{logger: logger}
}

func (l *logNotifier) Notify(ctx context.Context, n core.Notification) error {
	l.logger.InfoContext(ctx, "medication reminder",
		"reminder_id", n.ReminderID,
		"medication", security.SanitizeText(n.MedicationName),
		"dosage", security.SanitizeText(n.Dosage),
		"due", n.Due,
		"delivery_id", firectx.DeliveryIDFromContext(ctx))
	return nil
}

type writerNotifier struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// Writer returns a sink that prints one line per reminder to w, with due
// times shown in loc.
func Writer(w io.Writer, loc *time.Location) core.Notifier {
	return &writerNotifier{w: w, loc: loc}
}

func (wn *writerNotifier) Notify(_ context.Context, n core.Notification) error {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	_, err := fmt.Fprintln(wn.w, Format(n, wn.loc))
	return err
}

type multiNotifier []core.Notifier

// Multi returns a sink that delivers to every non-nil notifier in order.
// One failing sink does not stop the others; all errors are joined.
func Multi(notifiers ...core.Notifier) core.Notifier {
	var m multiNotifier
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m multiNotifier) Notify(ctx context.Context, n core.Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
