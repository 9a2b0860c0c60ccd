/*
Package rules centralizes the violation taxonomy of the timesheet engine.

PURPOSE:
  All business rule violations in one place for consistency and
  discoverability. Every violation is a recoverable, user-facing outcome,
  never process-fatal, and never retried automatically: each one is caused
  by invalid caller input or a legitimate business conflict.

CATEGORIES:
  1. Malformed input      - InvalidRange, InvalidHours, EmptySubTaskSet
  2. Consistency conflicts - DailyHoursExceeded, LeaveOverlap, LeaveTaskConflict
  3. Lifecycle violations  - InvalidTransition, Forbidden

USAGE:
  Violations are structured types unwrapping to sentinel errors:

    if errors.Is(err, rules.ErrDailyHoursExceeded) { ... }

    var v *rules.DailyHoursExceededError
    if errors.As(err, &v) {
        // v.Date, v.Attempted, v.Limit
    }

SEE ALSO:
  - timesheet, leave: produce the input and consistency violations
  - approval: produces the lifecycle violations
  - api: maps violation codes to HTTP responses
*/
package rules

import (
	"errors"
	"fmt"

	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/timeclock"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidHours is returned when a sub-task's hours are not positive
	// or violate the configured minimum granularity.
	ErrInvalidHours = errors.New("invalid hours")

	// ErrEmptySubTaskSet is returned when a non-draft entry has no sub-tasks.
	ErrEmptySubTaskSet = errors.New("empty sub-task set")

	// ErrDailyHoursExceeded is returned when accepting an entry would push a
	// day's total over the daily limit.
	ErrDailyHoursExceeded = errors.New("daily hours exceeded")

	// ErrLeaveOverlap is returned when a leave range intersects an existing
	// non-rejected leave request for the same owner.
	ErrLeaveOverlap = errors.New("leave overlap")

	// ErrLeaveTaskConflict is returned when a leave range covers a date that
	// already carries non-rejected task hours.
	ErrLeaveTaskConflict = errors.New("leave conflicts with task entry")

	// ErrInvalidTransition is returned for a (state, event) pair that is not
	// in the transition table, including a second transition racing a first.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden is returned when the actor lacks the role or ownership a
	// transition requires.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// MALFORMED INPUT
// =============================================================================

type InvalidRangeError struct {
	Start timeclock.Date
	End   timeclock.Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

type InvalidHoursError struct {
	Hours     timeclock.Hours
	Increment timeclock.Hours // zero when the violation is non-positive hours
}

func (e *InvalidHoursError) Error() string {
	if !e.Increment.IsZero() {
		return fmt.Sprintf("invalid hours %s: must be a multiple of %s", e.Hours, e.Increment)
	}
	return fmt.Sprintf("invalid hours %s: must be greater than zero", e.Hours)
}

func (e *InvalidHoursError) Unwrap() error { return ErrInvalidHours }

type EmptySubTaskSetError struct {
	EntryID string
}

func (e *EmptySubTaskSetError) Error() string {
	return fmt.Sprintf("entry %s has no sub-tasks", e.EntryID)
}

func (e *EmptySubTaskSetError) Unwrap() error { return ErrEmptySubTaskSet }

// =============================================================================
// CONSISTENCY CONFLICTS
// =============================================================================

type DailyHoursExceededError struct {
	Date      timeclock.Date
	Attempted timeclock.Hours
	Limit     timeclock.Hours
}

func (e *DailyHoursExceededError) Error() string {
	return fmt.Sprintf("cannot log %s hours on %s: daily limit is %s",
		e.Attempted, e.Date, e.Limit)
}

func (e *DailyHoursExceededError) Unwrap() error { return ErrDailyHoursExceeded }

type LeaveOverlapError struct {
	ConflictingID string
	Range         timeclock.DateRange
}

func (e *LeaveOverlapError) Error() string {
	return fmt.Sprintf("leave overlaps existing request %s %s", e.ConflictingID, e.Range)
}

func (e *LeaveOverlapError) Unwrap() error { return ErrLeaveOverlap }

type LeaveTaskConflictError struct {
	Date    timeclock.Date
	EntryID string
}

func (e *LeaveTaskConflictError) Error() string {
	return fmt.Sprintf("task entry %s exists on %s: cannot take leave", e.EntryID, e.Date)
}

func (e *LeaveTaskConflictError) Unwrap() error { return ErrLeaveTaskConflict }

// =============================================================================
// LIFECYCLE VIOLATIONS
// =============================================================================

// InvalidTransitionError reports a transition attempted from a state that
// does not allow it. From and Event are plain strings so the approval
// package can depend on rules, not the other way around.
type InvalidTransitionError struct {
	From  string
	Event string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from %s", e.Event, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

type ForbiddenError struct {
	Actor    identity.UserID
	Event    string
	Required string // "ADMIN" or "owner"
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %s may not %s: requires %s", e.Actor, e.Event, e.Required)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// =============================================================================
// HELPERS
// =============================================================================

var sentinels = []error{
	ErrInvalidRange,
	ErrInvalidHours,
	ErrEmptySubTaskSet,
	ErrDailyHoursExceeded,
	ErrLeaveOverlap,
	ErrLeaveTaskConflict,
	ErrInvalidTransition,
	ErrForbidden,
}

// IsViolation reports whether err is a business rule violation rather than
// an infrastructure failure.
func IsViolation(err error) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// Code returns a stable machine-readable code for a violation, or "" for
// non-violation errors. The API layer puts this in response bodies.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrInvalidHours):
		return "invalid_hours"
	case errors.Is(err, ErrEmptySubTaskSet):
		return "empty_sub_task_set"
	case errors.Is(err, ErrDailyHoursExceeded):
		return "daily_hours_exceeded"
	case errors.Is(err, ErrLeaveOverlap):
		return "leave_overlap"
	case errors.Is(err, ErrLeaveTaskConflict):
		return "leave_task_conflict"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return ""
	}
}
