/*
Package timesheet implements the task entry aggregate: one user's daily
work record and the rules that keep it consistent.

PURPOSE:
  A TaskEntry owns an ordered set of sub-tasks for one (owner, work date).
  The aggregate enforces the daily hours cap across all of the owner's
  non-rejected entries for that date, sub-task hour validity, and the
  non-empty rule for submitted entries. Validation is pure: it reads
  snapshots supplied by the caller and returns a typed violation or nil.

INVARIANT:
  sum of sub-task hours for a given (owner, work date) across all
  non-rejected, non-deleted entries <= the policy's daily limit (8.0 by
  default).

SEE ALSO:
  - validate.go: the validation contract
  - policy.go: daily limit and hour granularity
  - leave: the sibling aggregate checked for date conflicts
*/
package timesheet

import (
	"time"

	"github.com/warp/timesheet-engine/approval"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/timeclock"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type ClientID string
type TaskMasterID string

// =============================================================================
// TASK ENTRY - One day's work record for one user
// =============================================================================

// SubTask is a client-attributed unit of work within a task entry. The
// client and task master references are optional; when present they must
// resolve to active registry records.
type SubTask struct {
	Client      ClientID
	TaskMaster  TaskMasterID
	Title       string
	Description string
	Hours       timeclock.Hours
	Productive  bool
}

// TaskEntry is a single day's record of work for one user.
type TaskEntry struct {
	ID       EntryID
	Owner    identity.UserID
	WorkDate timeclock.Date
	TaskName string
	SubTasks []SubTask
	Status   approval.Status

	// Overtime classification, derived from the work calendar. Hours on
	// holidays and non-working weekends count as overtime in full.
	Overtime      bool
	OvertimeHours timeclock.Hours

	// Review outcome
	AdminComment string
	DecidedBy    identity.UserID
	DecidedAt    *time.Time

	Audit identity.Audit
}

// TotalHours returns the exact sum of sub-task hours.
func (e *TaskEntry) TotalHours() timeclock.Hours {
	hs := make([]timeclock.Hours, len(e.SubTasks))
	for i, st := range e.SubTasks {
		hs[i] = st.Hours
	}
	return timeclock.SumHours(hs)
}

// CountsTowardDay reports whether the entry's hours count against the
// daily cap. Rejected entries are immutable history and never count.
func (e *TaskEntry) CountsTowardDay() bool {
	return e.Status != approval.StatusRejected
}

// Mutable reports whether the entry may still be edited by its owner.
func (e *TaskEntry) Mutable() bool {
	return e.Status == approval.StatusDraft
}
