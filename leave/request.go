/*
Package leave implements the leave request aggregate.

PURPOSE:
  A Request is a user's inclusive date-range request for time off. The
  aggregate keeps an owner's non-rejected requests pairwise disjoint and
  keeps leave days free of non-rejected task hours. Validation is pure:
  snapshots in, typed violation or nil out.

INVARIANTS:
  1. For one owner, the ranges of all non-rejected requests are disjoint.
  2. No date covered by a non-rejected request also carries a non-rejected
     task entry with nonzero hours.

SEE ALSO:
  - validate.go: the validation contract
  - timesheet: the sibling aggregate whose entries are checked
*/
package leave

import (
	"time"

	"github.com/warp/timesheet-engine/approval"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/rules"
	"github.com/warp/timesheet-engine/timeclock"
)

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type RequestID string

// Kind classifies a request by its hours per day.
type Kind string

const (
	KindFullDay    Kind = "FULL_DAY"
	KindHalfDay    Kind = "HALF_DAY"
	KindShortLeave Kind = "SHORT_LEAVE"
)

// KindForHours derives the kind from hours per day: up to 2 hours is a
// short leave, up to 4 a half day, anything more a full day.
func KindForHours(h timeclock.Hours) Kind {
	switch {
	case !h.GreaterThan(timeclock.MustHours(2)):
		return KindShortLeave
	case !h.GreaterThan(timeclock.MustHours(4)):
		return KindHalfDay
	default:
		return KindFullDay
	}
}

// Request is a date-range request for time off by one user.
type Request struct {
	ID          RequestID
	Owner       identity.UserID
	Range       timeclock.DateRange
	HoursPerDay timeclock.Hours
	Kind        Kind
	Reason      string
	Status      approval.Status

	// Review outcome
	AdminComment string
	DecidedBy    identity.UserID
	DecidedAt    *time.Time

	Audit identity.Audit
}

// NewRequest constructs a draft request. End before start is rejected here,
// at construction time, not during validation.
func NewRequest(id RequestID, owner identity.UserID, start, end timeclock.Date, hoursPerDay timeclock.Hours, reason string) (*Request, error) {
	rng, err := timeclock.NewDateRange(start, end)
	if err != nil {
		return nil, &rules.InvalidRangeError{Start: start, End: end}
	}
	return &Request{
		ID:          id,
		Owner:       owner,
		Range:       rng,
		HoursPerDay: hoursPerDay,
		Kind:        KindForHours(hoursPerDay),
		Reason:      reason,
		Status:      approval.StatusDraft,
	}, nil
}

// Blocks reports whether the request constrains other records. Rejected
// requests are immutable history and block nothing.
func (r *Request) Blocks() bool {
	return r.Status != approval.StatusRejected
}
