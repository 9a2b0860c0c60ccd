package leave

import (
	"github.com/warp/timesheet-engine/rules"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// VALIDATION - Snapshots in, typed violation or nil out
// =============================================================================

// ValidateCreate checks a candidate request against the owner's existing
// leave and task entries. Both snapshots are supplied by the persistence
// collaborator; the aggregate issues no queries of its own.
//
// Checks, in order:
//  1. the candidate's range must not overlap any non-rejected leave
//     request for the same owner (the candidate's own prior version,
//     matched by ID, is skipped so submit-time re-validation passes);
//  2. no date in the range may carry a non-rejected task entry with
//     nonzero total hours.
func ValidateCreate(existingLeave []Request, existingEntries []timesheet.TaskEntry, candidate *Request) error {
	for i := range existingLeave {
		other := &existingLeave[i]
		if other.ID == candidate.ID {
			continue
		}
		if !other.Blocks() {
			continue
		}
		if candidate.Range.Overlaps(other.Range) {
			return &rules.LeaveOverlapError{
				ConflictingID: string(other.ID),
				Range:         other.Range,
			}
		}
	}

	// Scan the range in date order so the reported conflict is the
	// earliest one, deterministically.
	for _, day := range candidate.Range.Days() {
		for i := range existingEntries {
			entry := &existingEntries[i]
			if !entry.CountsTowardDay() {
				continue
			}
			if !entry.WorkDate.Equal(day) {
				continue
			}
			if entry.TotalHours().IsPositive() {
				return &rules.LeaveTaskConflictError{
					Date:    day,
					EntryID: string(entry.ID),
				}
			}
		}
	}

	return nil
}
