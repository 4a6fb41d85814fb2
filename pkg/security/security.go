// Package security provides sanitization and limits for the reminders package.
package security

import (
	"strings"
	"unicode/utf8"
)

// Security limits and configuration
const (
	// MaxMedicationNameLength is the maximum length for medication names
	MaxMedicationNameLength = 255

	// MaxDosageLength is the maximum length for dosage descriptions
	MaxDosageLength = 255

	// MaxRepeatMinutes is the longest accepted repeat interval (one leap year)
	MaxRepeatMinutes = 366 * 24 * 60

	// MaxConcurrency is the hard limit for fire workers
	MaxConcurrency = 1000

	// MaxErrorMessageLength is the maximum length for logged error messages
	MaxErrorMessageLength = 4096
)

// SanitizeText trims surrounding whitespace and drops control characters.
// Medication names and dosages are single-line values, so newlines go too.
func SanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SanitizeErrorMessage truncates and sanitizes error messages for logging
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// NormalizeRepeat maps a raw repeat interval to its stored form.
// Non-positive values mean "no repeat" and yield nil; large values are clamped.
func NormalizeRepeat(minutes int) *int {
	if minutes <= 0 {
		return nil
	}
	if minutes > MaxRepeatMinutes {
		minutes = MaxRepeatMinutes
	}
	return &minutes
}

// ClampConcurrency ensures concurrency is within limits
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
