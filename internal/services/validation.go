package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError carries every failing field with its first failing check.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// fieldErrors accumulates one message per field; the first check to fail wins.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) has(field string) bool {
	_, exists := f[field]
	return exists
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(f)}
}

// validEmail checks an address with the same rules as request binding.
func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// calendarDay keeps the year, month and day of t as written, whatever its zone.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dueDateInPast reports whether the day due names comes before today's date
// on the server clock. The due date is never shifted into the server's zone.
func dueDateInPast(due, now time.Time) bool {
	return calendarDay(due).Before(calendarDay(now))
}

func sameDay(a, b time.Time) bool {
	return calendarDay(a).Equal(calendarDay(b))
}
