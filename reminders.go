// Package reminders provides a durable medication reminder scheduler.
//
// This is the main package users should import. It re-exports all public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Create storage and scheduler
//	store, _ := reminders.OpenStorage("sqlite", "reminders.db", nil)
//	store.Migrate(ctx)
//	sched := reminders.New(store, reminders.LogNotifier(slog.Default()))
//
//	// Re-arm stored reminders, then start dispatching
//	reminders.Bootstrap(ctx, store, sched, time.Now())
//	go sched.Run(ctx)
//
//	// Create a reminder that repeats every 8 hours
//	svc := reminders.NewService(store, sched)
//	svc.Create(ctx, "Amoxicillin", "500mg", at, reminders.Repeat(8*60))
package reminders

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jdziat/durable-reminders/pkg/bootstrap"
	"github.com/jdziat/durable-reminders/pkg/core"
	"github.com/jdziat/durable-reminders/pkg/firectx"
	"github.com/jdziat/durable-reminders/pkg/notify"
	"github.com/jdziat/durable-reminders/pkg/schedule"
	"github.com/jdziat/durable-reminders/pkg/scheduler"
	"github.com/jdziat/durable-reminders/pkg/security"
	"github.com/jdziat/durable-reminders/pkg/service"
	"github.com/jdziat/durable-reminders/pkg/storage"
)

// Type aliases for the public API.
type (
	// Reminder is a persisted medication reminder.
	Reminder = core.Reminder

	// OccurrenceKey identifies one scheduled firing of a reminder.
	OccurrenceKey = core.OccurrenceKey

	// Notification is the payload delivered when an occurrence fires.
	Notification = core.Notification

	// Notifier delivers due reminders.
	Notifier = core.Notifier

	// NotifierFunc adapts a function to Notifier.
	NotifierFunc = core.NotifierFunc

	// Storage defines the persistence layer for reminders.
	Storage = core.Storage

	// ValidationError describes a rejected reminder field.
	ValidationError = core.ValidationError

	// Event is the interface for all scheduler events.
	Event = core.Event

	// OccurrenceScheduled is emitted when a timer is armed.
	OccurrenceScheduled = core.OccurrenceScheduled

	// OccurrenceFired is emitted after a successful delivery.
	OccurrenceFired = core.OccurrenceFired

	// OccurrenceSkipped is emitted when a fire finds its reminder deleted.
	OccurrenceSkipped = core.OccurrenceSkipped

	// OccurrenceCancelled is emitted for each timer removed by Cancel.
	OccurrenceCancelled = core.OccurrenceCancelled

	// ReminderRescheduled is emitted when a repeating reminder advances.
	ReminderRescheduled = core.ReminderRescheduled

	// NotifyFailed is emitted when a notifier errors or panics.
	NotifyFailed = core.NotifyFailed

	// Scheduler arms, fires and re-arms reminder occurrences.
	Scheduler = scheduler.Scheduler

	// SchedulerOption configures a Scheduler.
	SchedulerOption = scheduler.Option

	// Service is the create/read/delete surface for reminders.
	Service = service.Service

	// CreateOption modifies a Create call.
	CreateOption = service.Option

	// BootstrapResult summarises a bootstrap pass.
	BootstrapResult = bootstrap.Result

	// Fire describes the occurrence a notifier is delivering.
	Fire = firectx.Fire

	// Schedule defines when something should run next.
	Schedule = schedule.Schedule

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// MemoryStorage is a process-local Storage.
	MemoryStorage = storage.MemoryStorage
)

// Security limits
const (
	MaxMedicationNameLength = security.MaxMedicationNameLength
	MaxDosageLength         = security.MaxDosageLength
	MaxRepeatMinutes        = security.MaxRepeatMinutes
	MaxConcurrency          = security.MaxConcurrency
)

// Error variables
var (
	ErrValidation       = core.ErrValidation
	ErrReminderNotFound = core.ErrReminderNotFound
	ErrAlreadyRunning   = scheduler.ErrAlreadyRunning
)

// New creates a Scheduler that loads reminders from s and delivers them to n.
func New(s Storage, n Notifier, opts ...SchedulerOption) *Scheduler {
	return scheduler.New(s, n, opts...)
}

// NewService creates the creation surface over s and sched.
func NewService(s Storage, sched *Scheduler) *Service {
	return service.New(s, sched)
}

// Bootstrap schedules every stored reminder due strictly after now.
func Bootstrap(ctx context.Context, s Storage, sched *Scheduler, now time.Time) (BootstrapResult, error) {
	return bootstrap.Bootstrap(ctx, s, sched, now)
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return storage.NewMemoryStorage()
}

// OpenStorage connects to a sqlite or postgres database. A nil logger
// silences GORM.
func OpenStorage(driver, dsn string, l gormlogger.Interface) (*GormStorage, error) {
	return storage.Open(driver, dsn, l)
}

// NextOccurrence returns current plus the repeat interval, or false when the
// reminder does not repeat.
func NextOccurrence(current time.Time, repeatMinutes *int) (time.Time, bool) {
	return schedule.NextOccurrence(current, repeatMinutes)
}

// ParseSchedule combines a "2006-01-02" date and "15:04" clock in loc.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	return service.ParseSchedule(date, clock, loc)
}

// Scheduler option functions

// WithClock sets the clock the scheduler times occurrences against.
func WithClock(c clockwork.Clock) SchedulerOption {
	return scheduler.WithClock(c)
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return scheduler.WithLogger(l)
}

// Concurrency sets how many fires may run at once.
func Concurrency(n int) SchedulerOption {
	return scheduler.Concurrency(n)
}

// NotifyTimeout bounds a single notifier call.
func NotifyTimeout(d time.Duration) SchedulerOption {
	return scheduler.NotifyTimeout(d)
}

// Create option functions

// Repeat makes a reminder recur every n minutes.
func Repeat(minutes int) CreateOption {
	return service.Repeat(minutes)
}

// In interprets the wall clock of the creation time in loc.
func In(loc *time.Location) CreateOption {
	return service.In(loc)
}

// Notifier constructors

// LogNotifier writes each reminder to logger.
func LogNotifier(logger *slog.Logger) Notifier {
	return notify.Log(logger)
}

// WriterNotifier prints one line per reminder to w.
func WriterNotifier(w io.Writer, loc *time.Location) Notifier {
	return notify.Writer(w, loc)
}

// MultiNotifier fans a reminder out to several notifiers.
func MultiNotifier(notifiers ...Notifier) Notifier {
	return notify.Multi(notifiers...)
}

// FireFromContext returns the occurrence being delivered, or nil outside a fire.
func FireFromContext(ctx context.Context) *Fire {
	return firectx.FromContext(ctx)
}

// DeliveryIDFromContext returns the per-fire delivery id, or "".
func DeliveryIDFromContext(ctx context.Context) string {
	return firectx.DeliveryIDFromContext(ctx)
}
