// Package worker provides the bounded goroutine pool that runs reminder fires.
//
// This package includes:
//   - Pool: a fixed set of goroutines consuming submitted tasks
//   - PoolOption: configuration options for pools
//   - Retry: exponential backoff with jitter for transient storage failures
//
// The scheduler's dispatcher hands every due occurrence to a Pool so that a
// slow notification sink never holds up other due reminders.
package worker
