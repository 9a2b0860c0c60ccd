/*
Package engine is the validation orchestrator: the single entry point the
service layer calls on every create/update/submit/approve/reject.

PURPOSE:
  Composes the aggregates and the approval state machine into one atomic
  decision per call. Each operation, inside the store's transaction:
    (a) loads the minimal consistency set (same-owner same-day entries,
        or same-owner leave requests),
    (b) runs the relevant aggregate validation,
    (c) on success applies the state transition and stamps audit fields
        (updated_at = clock now, updated_by = actor),
    (d) on failure returns a typed rules violation and applies nothing.

AT-MOST-ONCE APPROVAL:
  Records are reloaded and the machine re-applied inside WithTx. Of two
  racing approvals the second reloads an already-APPROVED record and gets
  InvalidTransition, never a silent double-apply.

NOTIFICATIONS:
  Approve/reject return a TransitionResult; the caller hands it to the
  notification collaborator. The engine sends nothing itself.

SEE ALSO:
  - collab.go: the collaborator interfaces
  - approval: the transition table
*/
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/approval"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/leave"
	"github.com/warp/timesheet-engine/rules"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine orchestrates validation and state transitions. Every call is a
// pure function of its inputs plus the snapshots read inside the store
// transaction; the engine holds no mutable state of its own.
type Engine struct {
	Store    TxStore
	Clock    timeclock.Clock
	Policy   timesheet.Policy
	Calendar timeclock.WorkCalendar
	Log      *zap.Logger
}

// New builds an engine with the default policy and calendar.
func New(store TxStore, clock timeclock.Clock, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Store:    store,
		Clock:    clock,
		Policy:   timesheet.DefaultPolicy(),
		Calendar: timeclock.DefaultCalendar{},
		Log:      log,
	}
}

// Target identifies which aggregate a transition touched.
type Target string

const (
	TargetTaskEntry Target = "task_entry"
	TargetLeave     Target = "leave_request"
)

// TransitionResult is what the engine emits after a successful lifecycle
// transition. The API layer feeds it to the notification collaborator.
type TransitionResult struct {
	Target     Target
	ID         string
	Owner      identity.UserID
	Transition approval.Transition
	Comment    string
}

// =============================================================================
// TASK ENTRY OPERATIONS
// =============================================================================

// CreateTaskEntry validates and persists a new draft entry for its owner.
func (eng *Engine) CreateTaskEntry(ctx context.Context, actor identity.Actor, e *timesheet.TaskEntry) error {
	if actor.ID != e.Owner {
		return &rules.ForbiddenError{Actor: actor.ID, Event: "create", Required: "owner"}
	}
	e.Status = approval.StatusDraft

	return eng.Store.WithTx(ctx, func(s Store) error {
		existing, err := s.TaskEntriesForOwnerOnDate(ctx, e.Owner, e.WorkDate)
		if err != nil {
			return err
		}
		if err := eng.Policy.ValidateCreateOrUpdate(existing, e); err != nil {
			return err
		}
		eng.Policy.ClassifyOvertime(eng.Calendar, e)
		e.Audit.Init(actor.ID, eng.Clock.Now())
		return s.SaveTaskEntry(ctx, e)
	})
}

// UpdateTaskEntry replaces a draft entry's content. Only the owner may
// edit, and only while the entry is still a draft.
func (eng *Engine) UpdateTaskEntry(ctx context.Context, actor identity.Actor, e *timesheet.TaskEntry) error {
	return eng.Store.WithTx(ctx, func(s Store) error {
		current, err := s.TaskEntry(ctx, e.ID)
		if err != nil {
			return err
		}
		if actor.ID != current.Owner {
			return &rules.ForbiddenError{Actor: actor.ID, Event: "update", Required: "owner"}
		}
		if !current.Mutable() {
			return &rules.InvalidTransitionError{From: string(current.Status), Event: "update"}
		}

		existing, err := s.TaskEntriesForOwnerOnDate(ctx, current.Owner, e.WorkDate)
		if err != nil {
			return err
		}
		if err := eng.Policy.ValidateCreateOrUpdate(existing, e); err != nil {
			return err
		}

		e.Owner = current.Owner
		e.Status = current.Status
		e.Audit = current.Audit
		eng.Policy.ClassifyOvertime(eng.Calendar, e)
		e.Audit.Touch(actor.ID, eng.Clock.Now())
		return s.SaveTaskEntry(ctx, e)
	})
}

// DeleteTaskEntry removes a draft entry. Deletion is a machine event so
// the table, not the handler, decides it is draft-only and owner-only.
func (eng *Engine) DeleteTaskEntry(ctx context.Context, actor identity.Actor, id timesheet.EntryID) error {
	return eng.Store.WithTx(ctx, func(s Store) error {
		e, err := s.TaskEntry(ctx, id)
		if err != nil {
			return err
		}
		if _, err := approval.Apply(e.Status, approval.EventDelete, actor, e.Owner, eng.Clock.Now()); err != nil {
			return err
		}
		return s.DeleteTaskEntry(ctx, id)
	})
}

// SubmitTaskEntry moves a draft to SUBMITTED after re-running validation
// against the day's current state.
func (eng *Engine) SubmitTaskEntry(ctx context.Context, actor identity.Actor, id timesheet.EntryID) (*TransitionResult, error) {
	var result *TransitionResult
	err := eng.Store.WithTx(ctx, func(s Store) error {
		e, err := s.TaskEntry(ctx, id)
		if err != nil {
			return err
		}
		tr, err := approval.Apply(e.Status, approval.EventSubmit, actor, e.Owner, eng.Clock.Now())
		if err != nil {
			return err
		}

		// Re-check: other entries may have changed since the draft was made.
		existing, err := s.TaskEntriesForOwnerOnDate(ctx, e.Owner, e.WorkDate)
		if err != nil {
			return err
		}
		if err := eng.Policy.ValidateSubmit(existing, e); err != nil {
			return err
		}

		e.Status = tr.To
		e.Audit.Touch(actor.ID, tr.At)
		if err := s.SaveTaskEntry(ctx, e); err != nil {
			return err
		}
		result = &TransitionResult{Target: TargetTaskEntry, ID: string(e.ID), Owner: e.Owner, Transition: tr}
		return nil
	})
	if err != nil {
		return nil, err
	}
	eng.logTransition(result)
	return result, nil
}

// ApproveTaskEntry applies an admin approval decision.
func (eng *Engine) ApproveTaskEntry(ctx context.Context, actor identity.Actor, id timesheet.EntryID, comment string) (*TransitionResult, error) {
	return eng.decideTaskEntry(ctx, id, approval.Decision{
		Outcome: approval.StatusApproved, Actor: actor, At: eng.Clock.Now(), Comment: comment,
	})
}

// RejectTaskEntry applies an admin rejection. The rejected record becomes
// immutable history; the owner starts over with a new draft.
func (eng *Engine) RejectTaskEntry(ctx context.Context, actor identity.Actor, id timesheet.EntryID, comment string) (*TransitionResult, error) {
	return eng.decideTaskEntry(ctx, id, approval.Decision{
		Outcome: approval.StatusRejected, Actor: actor, At: eng.Clock.Now(), Comment: comment,
	})
}

func (eng *Engine) decideTaskEntry(ctx context.Context, id timesheet.EntryID, dec approval.Decision) (*TransitionResult, error) {
	var result *TransitionResult
	err := eng.Store.WithTx(ctx, func(s Store) error {
		e, err := s.TaskEntry(ctx, id)
		if err != nil {
			return err
		}
		tr, err := approval.Apply(e.Status, dec.Event(), dec.Actor, e.Owner, dec.At)
		if err != nil {
			return err
		}

		e.Status = tr.To
		e.AdminComment = dec.Comment
		e.DecidedBy = dec.Actor.ID
		at := dec.At
		e.DecidedAt = &at
		e.Audit.Touch(dec.Actor.ID, dec.At)
		if err := s.SaveTaskEntry(ctx, e); err != nil {
			return err
		}
		result = &TransitionResult{Target: TargetTaskEntry, ID: string(e.ID), Owner: e.Owner, Transition: tr, Comment: dec.Comment}
		return nil
	})
	if err != nil {
		return nil, err
	}
	eng.logTransition(result)
	return result, nil
}

// =============================================================================
// LEAVE OPERATIONS
// =============================================================================

// CreateLeave validates and persists a new draft leave request.
func (eng *Engine) CreateLeave(ctx context.Context, actor identity.Actor, r *leave.Request) error {
	if actor.ID != r.Owner {
		return &rules.ForbiddenError{Actor: actor.ID, Event: "create", Required: "owner"}
	}
	r.Status = approval.StatusDraft

	return eng.Store.WithTx(ctx, func(s Store) error {
		if err := eng.validateLeave(ctx, s, r); err != nil {
			return err
		}
		r.Audit.Init(actor.ID, eng.Clock.Now())
		return s.SaveLeave(ctx, r)
	})
}

// SubmitLeave moves a draft request to SUBMITTED after re-validation.
func (eng *Engine) SubmitLeave(ctx context.Context, actor identity.Actor, id leave.RequestID) (*TransitionResult, error) {
	var result *TransitionResult
	err := eng.Store.WithTx(ctx, func(s Store) error {
		r, err := s.LeaveRequest(ctx, id)
		if err != nil {
			return err
		}
		tr, err := approval.Apply(r.Status, approval.EventSubmit, actor, r.Owner, eng.Clock.Now())
		if err != nil {
			return err
		}
		if err := eng.validateLeave(ctx, s, r); err != nil {
			return err
		}

		r.Status = tr.To
		r.Audit.Touch(actor.ID, tr.At)
		if err := s.SaveLeave(ctx, r); err != nil {
			return err
		}
		result = &TransitionResult{Target: TargetLeave, ID: string(r.ID), Owner: r.Owner, Transition: tr}
		return nil
	})
	if err != nil {
		return nil, err
	}
	eng.logTransition(result)
	return result, nil
}

// ApproveLeave applies an admin approval decision to a leave request.
func (eng *Engine) ApproveLeave(ctx context.Context, actor identity.Actor, id leave.RequestID, comment string) (*TransitionResult, error) {
	return eng.decideLeave(ctx, id, approval.Decision{
		Outcome: approval.StatusApproved, Actor: actor, At: eng.Clock.Now(), Comment: comment,
	})
}

// RejectLeave applies an admin rejection to a leave request.
func (eng *Engine) RejectLeave(ctx context.Context, actor identity.Actor, id leave.RequestID, comment string) (*TransitionResult, error) {
	return eng.decideLeave(ctx, id, approval.Decision{
		Outcome: approval.StatusRejected, Actor: actor, At: eng.Clock.Now(), Comment: comment,
	})
}

// DeleteLeave removes a draft leave request.
func (eng *Engine) DeleteLeave(ctx context.Context, actor identity.Actor, id leave.RequestID) error {
	return eng.Store.WithTx(ctx, func(s Store) error {
		r, err := s.LeaveRequest(ctx, id)
		if err != nil {
			return err
		}
		if _, err := approval.Apply(r.Status, approval.EventDelete, actor, r.Owner, eng.Clock.Now()); err != nil {
			return err
		}
		return s.DeleteLeave(ctx, id)
	})
}

func (eng *Engine) decideLeave(ctx context.Context, id leave.RequestID, dec approval.Decision) (*TransitionResult, error) {
	var result *TransitionResult
	err := eng.Store.WithTx(ctx, func(s Store) error {
		r, err := s.LeaveRequest(ctx, id)
		if err != nil {
			return err
		}
		tr, err := approval.Apply(r.Status, dec.Event(), dec.Actor, r.Owner, dec.At)
		if err != nil {
			return err
		}

		r.Status = tr.To
		r.AdminComment = dec.Comment
		r.DecidedBy = dec.Actor.ID
		at := dec.At
		r.DecidedAt = &at
		r.Audit.Touch(dec.Actor.ID, dec.At)
		if err := s.SaveLeave(ctx, r); err != nil {
			return err
		}
		result = &TransitionResult{Target: TargetLeave, ID: string(r.ID), Owner: r.Owner, Transition: tr, Comment: dec.Comment}
		return nil
	})
	if err != nil {
		return nil, err
	}
	eng.logTransition(result)
	return result, nil
}

// validateLeave loads the owner's consistency set and runs the aggregate
// checks. Used at create and again at submit time.
func (eng *Engine) validateLeave(ctx context.Context, s Store, r *leave.Request) error {
	existingLeave, err := s.LeaveForOwner(ctx, r.Owner)
	if err != nil {
		return err
	}
	entries, err := s.TaskEntriesForOwnerInRange(ctx, r.Owner, r.Range)
	if err != nil {
		return err
	}
	return leave.ValidateCreate(existingLeave, entries, r)
}

func (eng *Engine) logTransition(res *TransitionResult) {
	if res == nil {
		return
	}
	eng.Log.Info("transition applied",
		zap.String("target", string(res.Target)),
		zap.String("id", res.ID),
		zap.String("from", string(res.Transition.From)),
		zap.String("to", string(res.Transition.To)),
		zap.String("actor", string(res.Transition.Actor.ID)),
	)
}
