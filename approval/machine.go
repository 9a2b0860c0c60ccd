/*
Package approval implements the shared lifecycle state machine for task
entries and leave requests.

PURPOSE:
  One declarative transition table governs both approvable entities:

    DRAFT -> SUBMITTED -> {APPROVED, REJECTED}

  APPROVED and REJECTED are terminal for a record instance. A rejected
  record is immutable history: the owner creates a fresh draft instead of
  resubmitting it.

GUARDS:
  Each event carries an actor requirement. The role/ownership guard is
  evaluated before the state lookup, so a wrong actor sees Forbidden even
  when the state would also have refused the event.

CONCURRENCY:
  Apply is a pure function of (state, event, actor). The at-most-once
  approval guarantee comes from the caller running Apply on a freshly
  loaded record inside a per-record transaction: the second of two racing
  approvals reloads an already-terminal record and gets InvalidTransition.

SEE ALSO:
  - rules: the InvalidTransition and Forbidden violation types
  - engine: re-applies the machine inside store transactions
*/
package approval

import (
	"time"

	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/rules"
)

// =============================================================================
// STATES AND EVENTS
// =============================================================================

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Terminal reports whether the status ends the record's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventDelete  Event = "delete"
)

// =============================================================================
// TRANSITION TABLE
// =============================================================================

// actorRequirement is who may fire an event, independent of state.
type actorRequirement int

const (
	requiresOwner actorRequirement = iota
	requiresAdmin
)

var eventGuards = map[Event]actorRequirement{
	EventSubmit:  requiresOwner,
	EventDelete:  requiresOwner,
	EventApprove: requiresAdmin,
	EventReject:  requiresAdmin,
}

type transition struct {
	to      Status
	removed bool // delete leaves no next state
}

var table = map[Status]map[Event]transition{
	StatusDraft: {
		EventSubmit: {to: StatusSubmitted},
		EventDelete: {removed: true},
	},
	StatusSubmitted: {
		EventApprove: {to: StatusApproved},
		EventReject:  {to: StatusRejected},
	},
	// APPROVED and REJECTED allow nothing.
}

// =============================================================================
// APPLY
// =============================================================================

// Transition is the result of a successful Apply.
type Transition struct {
	From    Status
	To      Status
	Event   Event
	Actor   identity.Actor
	At      time.Time
	Removed bool
}

// Apply evaluates one event against the table. owner is the record's
// owner id. The actor guard runs before the state lookup.
func Apply(current Status, ev Event, actor identity.Actor, owner identity.UserID, at time.Time) (Transition, error) {
	req, known := eventGuards[ev]
	if known {
		switch req {
		case requiresOwner:
			if actor.ID != owner {
				return Transition{}, &rules.ForbiddenError{
					Actor: actor.ID, Event: string(ev), Required: "owner",
				}
			}
		case requiresAdmin:
			if !actor.IsAdmin() {
				return Transition{}, &rules.ForbiddenError{
					Actor: actor.ID, Event: string(ev), Required: string(identity.RoleAdmin),
				}
			}
		}
	}

	tr, ok := table[current][ev]
	if !ok {
		return Transition{}, &rules.InvalidTransitionError{
			From: string(current), Event: string(ev),
		}
	}

	return Transition{
		From:    current,
		To:      tr.to,
		Event:   ev,
		Actor:   actor,
		At:      at,
		Removed: tr.removed,
	}, nil
}

// =============================================================================
// DECISION - Transient outcome of an admin review
// =============================================================================

// Decision is the transient value an admin review produces. It is applied
// to the target's status and audit fields, never persisted on its own.
type Decision struct {
	Outcome Status // StatusApproved or StatusRejected
	Actor   identity.Actor
	At      time.Time
	Comment string // optional
}

// Event returns the machine event the decision corresponds to.
func (d Decision) Event() Event {
	if d.Outcome == StatusApproved {
		return EventApprove
	}
	return EventReject
}
