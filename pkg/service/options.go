package service

import (
	"log/slog"
	"time"

	"github.com/jdziat/durable-reminders/pkg/security"
)

// CreateOptions holds per-reminder creation settings.
type CreateOptions struct {
	RepeatMinutes *int
	Location      *time.Location
}

// Option modifies CreateOptions.
type Option interface {
	Apply(*CreateOptions)
}

type optionFunc func(*CreateOptions)

func (f optionFunc) Apply(o *CreateOptions) { f(o) }

// Repeat makes the reminder recur every n minutes after its first due time.
// Non-positive values mean no repeat; values above MaxRepeatMinutes are clamped.
func Repeat(minutes int) Option {
	return optionFunc(func(o *CreateOptions) {
		o.RepeatMinutes = security.NormalizeRepeat(minutes)
	})
}

// In interprets the wall clock of the given time in loc, so
// time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) with In(tokyo) means 08:00
// Tokyo time.
func In(loc *time.Location) Option {
	return optionFunc(func(o *CreateOptions) {
		o.Location = loc
	})
}

// ServiceOption configures a Service.
type ServiceOption interface {
	applyService(*Service)
}

type serviceOptionFunc func(*Service)

func (f serviceOptionFunc) applyService(s *Service) { f(s) }

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return serviceOptionFunc(func(s *Service) {
		if l != nil {
			s.logger = l
		}
	})
}
