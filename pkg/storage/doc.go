// Package storage provides storage implementations for reminder persistence.
//
// This package includes:
//   - GormStorage: a GORM-based implementation for SQLite and PostgreSQL
//   - MemoryStorage: a process-local implementation for tests and dry runs
//
// The Storage interface is defined in pkg/core and must be implemented
// by any custom storage backend.
//
// Most users should import the root package github.com/jdziat/durable-reminders
// which provides OpenStorage() to create storage instances.
package storage
