/*
collab.go - Collaborator interfaces the orchestrator consumes

PURPOSE:
  Narrow interfaces between the validation core and the outside world.
  The core never issues queries itself: the persistence collaborator
  supplies snapshots and commits validated mutations transactionally.

TRANSACTION CONTRACT:
  WithTx serializes writers per store. Every state-changing operation
  reloads its consistency set and re-runs validation inside WithTx
  immediately before commit, so two concurrent submissions cannot both
  pass the daily cap on a stale total and two concurrent approvals
  cannot both win.

SEE ALSO:
  - store/memory: snapshot-rollback implementation for tests and dev
  - store/sqlite: production implementation on database/sql transactions
*/
package engine

import (
	"context"
	"errors"

	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/leave"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// STORE ERRORS
// =============================================================================

var (
	ErrTaskEntryNotFound = errors.New("task entry not found")
	ErrLeaveNotFound     = errors.New("leave request not found")
)

// =============================================================================
// PERSISTENCE COLLABORATOR
// =============================================================================

// Snapshots is the read side: minimal consistency sets for validation.
type Snapshots interface {
	// TaskEntry loads one entry by id. Returns ErrTaskEntryNotFound.
	TaskEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TaskEntry, error)

	// TaskEntriesForOwnerOnDate returns all of the owner's entries for one
	// work date, every status included.
	TaskEntriesForOwnerOnDate(ctx context.Context, owner identity.UserID, date timeclock.Date) ([]timesheet.TaskEntry, error)

	// TaskEntriesForOwnerInRange returns the owner's entries with work
	// dates inside the inclusive range.
	TaskEntriesForOwnerInRange(ctx context.Context, owner identity.UserID, rng timeclock.DateRange) ([]timesheet.TaskEntry, error)

	// LeaveRequest loads one request by id. Returns ErrLeaveNotFound.
	LeaveRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error)

	// LeaveForOwner returns all of the owner's leave requests.
	LeaveForOwner(ctx context.Context, owner identity.UserID) ([]leave.Request, error)
}

// Mutations is the write side, only reachable inside WithTx.
type Mutations interface {
	SaveTaskEntry(ctx context.Context, e *timesheet.TaskEntry) error
	DeleteTaskEntry(ctx context.Context, id timesheet.EntryID) error
	SaveLeave(ctx context.Context, r *leave.Request) error
	DeleteLeave(ctx context.Context, id leave.RequestID) error
}

// Store combines reads and writes for use within a transaction.
type Store interface {
	Snapshots
	Mutations
}

// TxStore is the persistence collaborator. WithTx executes fn atomically:
// if fn returns an error the transaction rolls back and nothing is applied.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
