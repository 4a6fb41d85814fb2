package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jdziat/durable-reminders/pkg/core"
	"github.com/jdziat/durable-reminders/pkg/security"
)

// Scheduler is the part of the scheduler the service drives.
type Scheduler interface {
	Schedule(reminderID int64, due time.Time) bool
	Cancel(reminderID int64) int
}

// Service creates, reads and deletes reminders.
type Service struct {
	store    core.Storage
	sched    Scheduler
	logger   *slog.Logger
	validate *validator.Validate
}

// reminderInput carries the validated form of a create request.
type reminderInput struct {
	MedicationName string    `validate:"required,max=255"`
	Dosage         string    `validate:"required,max=255"`
	ScheduleTime   time.Time `validate:"required"`
	RepeatMinutes  *int      `validate:"omitempty,gt=0"`
}

var fieldNames = map[string]string{
	"MedicationName": "medication_name",
	"Dosage":         "dosage",
	"ScheduleTime":   "schedule_time",
	"RepeatMinutes":  "repeat_minutes",
}

// New creates a Service backed by store that arms timers on sched.
func New(store core.Storage, sched Scheduler, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		sched:    sched,
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt.applyService(s)
	}
	return s
}

// Create validates and stores a reminder, then schedules its first
// occurrence. When the scheduler declines the occurrence (the time is
// already past, or no dispatcher runs in this process) the record is stored
// without a timer.
func (s *Service) Create(ctx context.Context, medication, dosage string, at time.Time, opts ...Option) (*core.Reminder, error) {
	o := &CreateOptions{}
	for _, opt := range opts {
		opt.Apply(o)
	}

	if o.Location != nil && !at.IsZero() {
		at = time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), at.Minute(), 0, 0, o.Location)
	}

	in := reminderInput{
		MedicationName: security.SanitizeText(medication),
		Dosage:         security.SanitizeText(dosage),
		ScheduleTime:   at,
		RepeatMinutes:  o.RepeatMinutes,
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	r := &core.Reminder{
		MedicationName: in.MedicationName,
		Dosage:         in.Dosage,
		ScheduleTime:   in.ScheduleTime.UTC().Truncate(time.Minute),
		RepeatMinutes:  in.RepeatMinutes,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	if s.sched.Schedule(r.ID, r.ScheduleTime) {
		s.logger.Info("reminder created",
			"reminder_id", r.ID,
			"schedule_time", r.ScheduleTime,
			"repeating", r.IsRepeating())
	} else {
		s.logger.Warn("reminder stored without a timer",
			"reminder_id", r.ID,
			"schedule_time", r.ScheduleTime)
	}
	return r, nil
}

// Get returns the reminder or ErrReminderNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*core.Reminder, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reminder %d: %w", id, err)
	}
	if r == nil {
		return nil, core.ErrReminderNotFound
	}
	return r, nil
}

// List returns every reminder ordered by next due time.
func (s *Service) List(ctx context.Context) ([]*core.Reminder, error) {
	reminders, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// Delete removes the reminder and cancels its pending occurrences.
// A fire already in progress sees the record gone and does nothing further.
func (s *Service) Delete(ctx context.Context, id int64) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	if r == nil {
		return core.ErrReminderNotFound
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	cancelled := s.sched.Cancel(id)
	s.logger.Info("reminder deleted", "reminder_id", id, "cancelled", cancelled)
	return nil
}

// ParseSchedule combines a "2006-01-02" date and a "15:04" clock reading in
// loc into an instant. A nil loc means UTC.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, core.NewValidationError("date", "is required")
	}
	if clock == "" {
		return time.Time{}, core.NewValidationError("time", "is required")
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, core.NewValidationError("schedule_time",
			fmt.Sprintf("want YYYY-MM-DD and HH:MM, got %q %q", date, clock))
	}
	return t, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return core.NewValidationError("reminder", err.Error())
	}

	fe := verrs[0]
	field := fieldNames[fe.Field()]
	if field == "" {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return core.NewValidationError(field, "is required")
	case "max":
		return core.NewValidationError(field, fmt.Sprintf("must be at most %s characters", fe.Param()))
	case "gt":
		return core.NewValidationError(field, fmt.Sprintf("must be greater than %s", fe.Param()))
	default:
		return core.NewValidationError(field, fmt.Sprintf("failed %s check", fe.Tag()))
	}
}
