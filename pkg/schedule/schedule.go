package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule defines when a periodic task should run next.
type Schedule interface {
	Next(from time.Time) time.Time
}

// NextOccurrence returns the due time that follows current for a reminder
// repeating every repeatMinutes. It reports false when the reminder does not
// repeat (nil or non-positive interval).
//
// The result is relative to the scheduled time, not to when the previous
// occurrence actually fired, so a late fire never compounds delay.
func NextOccurrence(current time.Time, repeatMinutes *int) (time.Time, bool) {
	if repeatMinutes == nil || *repeatMinutes <= 0 {
		return time.Time{}, false
	}
	return Every(time.Duration(*repeatMinutes) * time.Minute).Next(current), true
}

// everySchedule runs at fixed intervals.
type everySchedule struct {
	interval time.Duration
}

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return &everySchedule{interval: d}
}

func (s *everySchedule) Next(from time.Time) time.Time {
	return from.Add(s.interval)
}

// cronSchedule wraps a cron expression evaluated in a fixed location.
type cronSchedule struct {
	schedule cron.Schedule
	loc      *time.Location
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron parses a five-field cron expression or a descriptor such as
// "@daily". Times are evaluated in loc; nil means UTC.
func ParseCron(expr string, loc *time.Location) (Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &cronSchedule{schedule: sched, loc: loc}, nil
}

// Cron creates a UTC schedule from a cron expression.
// It panics on an invalid expression; use ParseCron for untrusted input.
func Cron(expr string) Schedule {
	s, err := ParseCron(expr, time.UTC)
	if err != nil {
		panic(err.Error())
	}
	return s
}

func (s *cronSchedule) Next(from time.Time) time.Time {
	return s.schedule.Next(from.In(s.loc))
}
