/*
Package identity defines who is acting on the timesheet engine.

PURPOSE:
  Identifiers, the closed two-role model, and the directory collaborator
  that resolves an acting user. Authentication and session mechanics are
  external; the engine only ever reads a user's id, role, and active flag.

SEE ALSO:
  - approval: uses Role to guard state transitions
  - engine: stamps Audit fields on every successful mutation
*/
package identity

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// IDENTIFIERS AND ROLES
// =============================================================================

type UserID string

// Role is a closed enum. Transition guards branch on it in one place
// (the approval transition table), not in scattered conditionals.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// Actor is the acting user for a single engine call.
type Actor struct {
	ID   UserID
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// User is the externally owned identity record. The engine reads role and
// id; everything else is carried for the API layer.
type User struct {
	ID        UserID
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

func (u *User) Actor() Actor { return Actor{ID: u.ID, Role: u.Role} }

// =============================================================================
// DIRECTORY - Identity collaborator
// =============================================================================

var ErrUserNotFound = errors.New("user not found")

// Directory resolves user ids to users. Implemented by the stores.
type Directory interface {
	UserByID(ctx context.Context, id UserID) (*User, error)
}

// =============================================================================
// AUDIT FIELDS
// =============================================================================

// Audit carries the UTC audit trail every aggregate embeds. The orchestrator
// stamps it from its injected clock; aggregates never touch it themselves.
type Audit struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy UserID
	UpdatedBy UserID
}

// Init stamps creation fields. Used exactly once per record.
func (a *Audit) Init(actor UserID, now time.Time) {
	a.CreatedAt = now
	a.UpdatedAt = now
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// Touch stamps an update. Called only after validation succeeds, so a
// rejected call never mutates audit fields.
func (a *Audit) Touch(actor UserID, now time.Time) {
	a.UpdatedAt = now
	a.UpdatedBy = actor
}
