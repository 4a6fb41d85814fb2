// Package schedule computes when things happen next.
//
// This package includes:
//   - NextOccurrence, the pure calculator for a reminder's next due time
//   - Schedule interface for periodic maintenance tasks
//   - Every() for fixed-interval schedules
//   - Daily() for daily schedules at a specific time
//   - Weekly() for weekly schedules on a specific day and time
//   - Cron() and ParseCron() for cron expression-based schedules
//
// Most users should import the root package github.com/jdziat/durable-reminders
// which re-exports these functions.
package schedule
