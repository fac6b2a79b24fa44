package recurrence

import (
	"fmt"
	"time"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
)

// Scope selects which part of a recurring series an update touches.
type Scope string

const (
	// ScopeAll patches the series master (or a plain single event).
	ScopeAll Scope = "all"
	// ScopeThisEventOnly patches one materialized instance.
	ScopeThisEventOnly Scope = "thisEventOnly"
	// ScopeThisAndFollowing splits the series at a future date.
	ScopeThisAndFollowing Scope = "thisAndFollowing"
)

// ParseScope parses a modificationScope argument. An empty value defaults to
// ScopeAll for backward compatibility.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeThisEventOnly, ScopeThisAndFollowing:
		return Scope(s), nil
	default:
		return "", apierr.NewValidationError("modificationScope",
			fmt.Sprintf("%q is not one of all, thisEventOnly, thisAndFollowing", s))
	}
}

// RequiresRecurring reports whether the scope is only meaningful on a
// recurring series.
func (s Scope) RequiresRecurring() bool {
	return s != ScopeAll
}

// Validate checks the scope-dependent arguments before any mutating call is
// issued. thisEventOnly needs originalStartTime; thisAndFollowing needs a
// futureStartDate strictly after now.
func (s Scope) Validate(originalStartTime, futureStartDate string, now time.Time) error {
	switch s {
	case ScopeThisEventOnly:
		if originalStartTime == "" {
			return apierr.NewValidationError("originalStartTime",
				"is required when modificationScope is thisEventOnly")
		}
		if _, _, err := ParseEventTime(originalStartTime); err != nil {
			return err
		}
	case ScopeThisAndFollowing:
		if futureStartDate == "" {
			return apierr.NewValidationError("futureStartDate",
				"is required when modificationScope is thisAndFollowing")
		}
		t, _, err := ParseEventTime(futureStartDate)
		if err != nil {
			return err
		}
		if !t.After(now) {
			return apierr.NewValidationError("futureStartDate", "must be in the future")
		}
	}
	return nil
}

// ParseEventTime parses an event timestamp argument: RFC3339 for timed
// events, "2006-01-02" for all-day events. The second return value reports
// the all-day case.
func ParseEventTime(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, apierr.NewValidationError("time",
		fmt.Sprintf("%q is neither an RFC3339 timestamp nor a YYYY-MM-DD date", s))
}
