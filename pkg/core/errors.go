package core

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrValidation       = errors.New("reminders: invalid reminder")
	ErrReminderNotFound = errors.New("reminders: reminder not found")
)

// ValidationError describes a rejected reminder field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("reminders: invalid %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for the named field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
