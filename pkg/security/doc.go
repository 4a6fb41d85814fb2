// Package security provides sanitization and limits for the reminders package.
//
// This package includes:
//   - Length limits for medication names and dosage descriptions
//   - Text sanitization that strips control characters before storage
//   - Error message sanitization to keep logs single-purpose and bounded
//   - Clamping functions for repeat intervals and worker concurrency
//
// Most users should import the root package github.com/jdziat/durable-reminders
// which re-exports these functions.
package security
