// Package core provides the fundamental types and interfaces for the reminders package.
//
// This package contains:
//   - Reminder data model with GORM annotations
//   - OccurrenceKey, the in-memory identity of one scheduled firing
//   - Storage interface defining the persistence contract
//   - Notifier interface and Notification payload
//   - Event types for scheduler monitoring
//   - Error types for validation and lookups
//
// Most users should import the root package github.com/jdziat/durable-reminders
// instead of this package directly.
package core
