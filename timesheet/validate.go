package timesheet

import (
	"github.com/warp/timesheet-engine/rules"
	"github.com/warp/timesheet-engine/timeclock"
)

// =============================================================================
// VALIDATION - Pure checks over same-owner same-day snapshots
// =============================================================================

// ValidateCreateOrUpdate checks a candidate entry against the owner's other
// entries for the same work date. existing is the snapshot supplied by the
// persistence collaborator; a prior version of the candidate (same ID) in
// the snapshot is excluded so updates replace rather than double-count.
//
// Pure validation: no side effects, the caller applies the mutation only
// on a nil return.
func (p Policy) ValidateCreateOrUpdate(existing []TaskEntry, candidate *TaskEntry) error {
	if err := p.validateSubTasks(candidate); err != nil {
		return err
	}

	total := candidate.TotalHours()
	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID {
			continue // candidate's prior version
		}
		if !other.CountsTowardDay() {
			continue
		}
		total = total.Add(other.TotalHours())
	}

	if total.GreaterThan(p.DailyLimit) {
		return &rules.DailyHoursExceededError{
			Date:      candidate.WorkDate,
			Attempted: total,
			Limit:     p.DailyLimit,
		}
	}
	return nil
}

// ValidateSubmit re-runs the create/update checks at submit time (other
// entries may have changed since the draft was written) and additionally
// rejects an empty sub-task set, which a draft may carry but a submitted
// entry may not.
func (p Policy) ValidateSubmit(existing []TaskEntry, candidate *TaskEntry) error {
	if len(candidate.SubTasks) == 0 {
		return &rules.EmptySubTaskSetError{EntryID: string(candidate.ID)}
	}
	return p.ValidateCreateOrUpdate(existing, candidate)
}

func (p Policy) validateSubTasks(candidate *TaskEntry) error {
	for _, st := range candidate.SubTasks {
		if !st.Hours.IsPositive() {
			return &rules.InvalidHoursError{Hours: st.Hours}
		}
		if !st.Hours.IsMultipleOf(p.MinIncrement) {
			return &rules.InvalidHoursError{Hours: st.Hours, Increment: p.MinIncrement}
		}
	}
	return nil
}

// =============================================================================
// OVERTIME CLASSIFICATION
// =============================================================================

// ClassifyOvertime derives the entry's overtime flags from the work
// calendar. Hours logged on a holiday or a non-working weekend day are
// overtime in full; regular workday hours within the daily limit are not.
// The classification never changes the entry's status - every submitted
// entry still awaits an admin decision.
func (p Policy) ClassifyOvertime(cal timeclock.WorkCalendar, e *TaskEntry) {
	total := e.TotalHours()

	if !timeclock.IsWorkday(cal, e.WorkDate) {
		e.Overtime = total.IsPositive()
		e.OvertimeHours = total
		return
	}

	e.Overtime = false
	e.OvertimeHours = timeclock.ZeroHours()
}
