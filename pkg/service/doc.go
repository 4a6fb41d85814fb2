// Package service is the creation surface for reminders.
//
// It validates caller input, persists the reminder and arms its first
// occurrence, and on delete removes both the record and any pending timer.
package service
