// Package timeutil normalizes event timestamps to a single canonical form:
// UTC at second resolution, formatted as "2006-01-02 15:04:05". All
// comparisons and duration arithmetic in the pipeline happen on this form.
package timeutil

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical timestamp layout.
const Layout = "2006-01-02 15:04:05"

// ErrInvalidTimestamp reports a timestamp that cannot be parsed. Callers
// must skip the offending event rather than substitute a default; a made-up
// time would corrupt duration and clustering statistics downstream.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Accepted input layouts, tried in order. Sources vary between the
// canonical form, ISO 8601 variants, and US-style date-times.
var layouts = []string{
	Layout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"01/02/2006 15:04:05",
}

// Parse converts a timestamp string into a UTC time truncated to seconds.
func Parse(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// Format renders a time in the canonical layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Canonical parses a timestamp and re-renders it in the canonical layout.
func Canonical(value string) (string, error) {
	t, err := Parse(value)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}
