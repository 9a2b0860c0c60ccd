package timesheet

import "github.com/warp/timesheet-engine/timeclock"

// =============================================================================
// POLICY - Tunable limits for a day's work record
// =============================================================================

// Policy holds the tunable limits the aggregate validates against.
type Policy struct {
	// DailyLimit caps the total non-rejected hours per owner per day.
	DailyLimit timeclock.Hours

	// MinIncrement is the hour granularity every sub-task must align to.
	// Zero disables the check.
	MinIncrement timeclock.Hours
}

// DefaultPolicy is the standard eight-hour day with no granularity rule.
func DefaultPolicy() Policy {
	return Policy{
		DailyLimit:   timeclock.MustHours(8),
		MinIncrement: timeclock.ZeroHours(),
	}
}
