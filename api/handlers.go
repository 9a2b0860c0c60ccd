/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes the validation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates every business
  decision to the engine.

ENDPOINTS:
  Task entries:
    GET    /api/task-entries/{id}              Get one entry
    GET    /api/task-entries?date=YYYY-MM-DD   List caller's entries for a day
    POST   /api/task-entries                   Create draft entry
    PUT    /api/task-entries/{id}              Update draft entry
    DELETE /api/task-entries/{id}              Delete draft entry
    POST   /api/task-entries/{id}/submit       Submit for approval

  Leave:
    GET    /api/leave                          List caller's leave requests
    GET    /api/leave/{id}                     Get one request
    POST   /api/leave                          Create draft request
    POST   /api/leave/{id}/submit              Submit for approval
    DELETE /api/leave/{id}                     Delete draft request

  Admin:
    POST   /api/admin/task-entries/{id}/approve
    POST   /api/admin/task-entries/{id}/reject
    POST   /api/admin/leave/{id}/approve
    POST   /api/admin/leave/{id}/reject
    POST   /api/admin/users                    Register user
    GET    /api/admin/users                    List users
    POST   /api/admin/holidays                 Add holiday
    POST   /api/admin/working-saturdays        Add working Saturday

  Clients and task masters:
    GET    /api/clients                        List clients
    POST   /api/admin/clients                  Register client
    GET    /api/task-masters                   List task masters
    POST   /api/admin/task-masters             Register task master

IDENTITY:
  The caller is identified by the X-User-ID header, resolved against the
  user directory by middleware. Role enforcement itself lives in the
  approval state machine, not here; the /api/admin subtree only adds an
  early 403 for convenience.

ERROR HANDLING:
  Rule violations map to HTTP status by their code:
  - 400: invalid_range, invalid_hours, empty_sub_task_set
  - 403: forbidden
  - 404: unknown entry or request
  - 409: daily_hours_exceeded, leave_overlap, leave_task_conflict,
         invalid_transition
  - 500: anything that is not a rule violation

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine: the orchestrator all handlers delegate to
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/engine"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/leave"
	"github.com/warp/timesheet-engine/notify"
	"github.com/warp/timesheet-engine/rules"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Registry is the non-transactional store surface the API needs beyond
// the engine: users, clients, and the work calendar. Both the sqlite and
// memory stores satisfy it.
type Registry interface {
	identity.Directory
	SaveUser(ctx context.Context, u identity.User) error
	ListUsers(ctx context.Context) ([]identity.User, error)

	SaveClient(ctx context.Context, c timesheet.Client) error
	Client(ctx context.Context, id timesheet.ClientID) (*timesheet.Client, error)
	ListClients(ctx context.Context) ([]timesheet.Client, error)

	SaveTaskMaster(ctx context.Context, tm timesheet.TaskMaster) error
	TaskMaster(ctx context.Context, id timesheet.TaskMasterID) (*timesheet.TaskMaster, error)
	ListTaskMasters(ctx context.Context) ([]timesheet.TaskMaster, error)

	AddHoliday(ctx context.Context, d timeclock.Date, name string) error
	AddWorkingSaturday(ctx context.Context, d timeclock.Date) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *engine.Engine
	Registry Registry
	Notifier notify.Notifier
	Clock    timeclock.Clock

	// Cal is the live calendar the engine classifies against. Holiday
	// mutations write both the registry and this in-memory view.
	Cal *timeclock.Calendar

	Log *zap.Logger
}

// NewHandler wires the handler. nil Notifier and Log get no-op defaults.
func NewHandler(eng *engine.Engine, reg Registry, cal *timeclock.Calendar, n notify.Notifier, log *zap.Logger) *Handler {
	if n == nil {
		n = notify.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Engine: eng, Registry: reg, Notifier: n, Clock: eng.Clock, Cal: cal, Log: log}
}

// =============================================================================
// TASK ENTRY HANDLERS
// =============================================================================

func (h *Handler) CreateTaskEntry(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())

	var req CreateTaskEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	id := timesheet.EntryID(fmt.Sprintf("entry-%d", time.Now().UnixNano()))
	e, err := decodeTaskEntry(id, actor.ID, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	msg, err := h.checkReferences(r.Context(), e)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	if msg != "" {
		respondError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	if err := h.Engine.CreateTaskEntry(r.Context(), actor, e); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, taskEntryToDTO(e))
}

func (h *Handler) GetTaskEntry(w http.ResponseWriter, r *http.Request) {
	id := timesheet.EntryID(chi.URLParam(r, "id"))
	e, err := h.Engine.Store.TaskEntry(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	actor := ActorFrom(r.Context())
	if e.Owner != actor.ID && !actor.IsAdmin() {
		respondError(w, http.StatusForbidden, "forbidden", "not your entry")
		return
	}
	respondJSON(w, http.StatusOK, taskEntryToDTO(e))
}

// ListTaskEntries returns the caller's entries for the date in ?date=,
// defaulting to today.
func (h *Handler) ListTaskEntries(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())

	date := timeclock.DateOf(h.Clock.Now())
	if ds := r.URL.Query().Get("date"); ds != "" {
		var err error
		if date, err = timeclock.ParseDate(ds); err != nil {
			respondError(w, http.StatusBadRequest, "bad_request", "invalid date")
			return
		}
	}

	entries, err := h.Engine.Store.TaskEntriesForOwnerOnDate(r.Context(), actor.ID, date)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]TaskEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = taskEntryToDTO(&entries[i])
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpdateTaskEntry(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	id := timesheet.EntryID(chi.URLParam(r, "id"))

	var req CreateTaskEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	e, err := decodeTaskEntry(id, actor.ID, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	msg, err := h.checkReferences(r.Context(), e)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	if msg != "" {
		respondError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	if err := h.Engine.UpdateTaskEntry(r.Context(), actor, e); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, taskEntryToDTO(e))
}

func (h *Handler) DeleteTaskEntry(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	id := timesheet.EntryID(chi.URLParam(r, "id"))

	if err := h.Engine.DeleteTaskEntry(r.Context(), actor, id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubmitTaskEntry(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	id := timesheet.EntryID(chi.URLParam(r, "id"))

	if _, err := h.Engine.SubmitTaskEntry(r.Context(), actor, id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	e, err := h.Engine.Store.TaskEntry(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, taskEntryToDTO(e))
}

func (h *Handler) ApproveTaskEntry(w http.ResponseWriter, r *http.Request) {
	h.decideTaskEntry(w, r, h.Engine.ApproveTaskEntry, false)
}

func (h *Handler) RejectTaskEntry(w http.ResponseWriter, r *http.Request) {
	h.decideTaskEntry(w, r, h.Engine.RejectTaskEntry, true)
}

type entryDecider func(ctx context.Context, actor identity.Actor, id timesheet.EntryID, comment string) (*engine.TransitionResult, error)

func (h *Handler) decideTaskEntry(w http.ResponseWriter, r *http.Request, decide entryDecider, commentRequired bool) {
	actor := ActorFrom(r.Context())
	id := timesheet.EntryID(chi.URLParam(r, "id"))

	var req DecisionRequest
	// An empty body means no comment; anything else must parse.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	// A rejection without a reason is useless to the owner.
	if commentRequired && req.Comment == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "a comment is required when rejecting")
		return
	}

	res, err := decide(r.Context(), actor, id, req.Comment)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.notifyTransition(r, res)

	e, err := h.Engine.Store.TaskEntry(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, taskEntryToDTO(e))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())

	var req CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	start, err := timeclock.ParseDate(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid start_date")
		return
	}
	end, err := timeclock.ParseDate(req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid end_date")
		return
	}
	hoursPerDay, err := timeclock.ParseHours(req.HoursPerDay)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid hours_per_day")
		return
	}

	id := leave.RequestID(fmt.Sprintf("leave-%d", time.Now().UnixNano()))
	lr, err := leave.NewRequest(id, actor.ID, start, end, hoursPerDay, req.Reason)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	if err := h.Engine.CreateLeave(r.Context(), actor, lr); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, leaveToDTO(lr))
}

func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	lr, err := h.Engine.Store.LeaveRequest(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	actor := ActorFrom(r.Context())
	if lr.Owner != actor.ID && !actor.IsAdmin() {
		respondError(w, http.StatusForbidden, "forbidden", "not your request")
		return
	}
	respondJSON(w, http.StatusOK, leaveToDTO(lr))
}

func (h *Handler) ListLeave(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	requests, err := h.Engine.Store.LeaveForOwner(r.Context(), actor.ID)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]LeaveRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = leaveToDTO(&requests[i])
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	id := leave.RequestID(chi.URLParam(r, "id"))

	if _, err := h.Engine.SubmitLeave(r.Context(), actor, id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	lr, err := h.Engine.Store.LeaveRequest(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, leaveToDTO(lr))
}

func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	id := leave.RequestID(chi.URLParam(r, "id"))

	if err := h.Engine.DeleteLeave(r.Context(), actor, id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, h.Engine.ApproveLeave, false)
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, h.Engine.RejectLeave, true)
}

type leaveDecider func(ctx context.Context, actor identity.Actor, id leave.RequestID, comment string) (*engine.TransitionResult, error)

func (h *Handler) decideLeave(w http.ResponseWriter, r *http.Request, decide leaveDecider, commentRequired bool) {
	actor := ActorFrom(r.Context())
	id := leave.RequestID(chi.URLParam(r, "id"))

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if commentRequired && req.Comment == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "a comment is required when rejecting")
		return
	}

	res, err := decide(r.Context(), actor, id, req.Comment)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.notifyTransition(r, res)

	lr, err := h.Engine.Store.LeaveRequest(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, leaveToDTO(lr))
}

// =============================================================================
// USERS, CLIENTS, CALENDAR
// =============================================================================

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	role := identity.Role(req.Role)
	if role != identity.RoleAdmin && role != identity.RoleEmployee {
		respondError(w, http.StatusBadRequest, "bad_request", "role must be ADMIN or EMPLOYEE")
		return
	}
	u := identity.User{
		ID:        identity.UserID(req.ID),
		Name:      req.Name,
		Email:     req.Email,
		Role:      role,
		Active:    true,
		CreatedAt: h.Clock.Now(),
	}
	if err := h.Registry.SaveUser(r.Context(), u); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, UserDTO{
		ID: string(u.ID), Name: u.Name, Email: u.Email, Role: string(u.Role), Active: u.Active,
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Registry.ListUsers(r.Context())
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = UserDTO{ID: string(u.ID), Name: u.Name, Email: u.Email, Role: string(u.Role), Active: u.Active}
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	c := timesheet.Client{
		ID:        timesheet.ClientID(req.ID),
		Name:      req.Name,
		Active:    true,
		CreatedAt: h.Clock.Now(),
	}
	if err := h.Registry.SaveClient(r.Context(), c); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ClientDTO{ID: string(c.ID), Name: c.Name, Active: c.Active})
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Registry.ListClients(r.Context())
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = ClientDTO{ID: string(c.ID), Name: c.Name, Active: c.Active}
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateTaskMaster(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskMasterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	tm := timesheet.TaskMaster{
		ID:          timesheet.TaskMasterID(req.ID),
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
		Profitable:  req.Profitable == nil || *req.Profitable,
		CreatedAt:   h.Clock.Now(),
	}
	if err := h.Registry.SaveTaskMaster(r.Context(), tm); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, TaskMasterDTO{
		ID: string(tm.ID), Name: tm.Name, Description: tm.Description,
		Active: tm.Active, Profitable: tm.Profitable,
	})
}

func (h *Handler) ListTaskMasters(w http.ResponseWriter, r *http.Request) {
	masters, err := h.Registry.ListTaskMasters(r.Context())
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]TaskMasterDTO, len(masters))
	for i, tm := range masters {
		dtos[i] = TaskMasterDTO{
			ID: string(tm.ID), Name: tm.Name, Description: tm.Description,
			Active: tm.Active, Profitable: tm.Profitable,
		}
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	d, err := timeclock.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid date")
		return
	}
	if err := h.Registry.AddHoliday(r.Context(), d, req.Name); err != nil {
		h.respondEngineError(w, err)
		return
	}
	if h.Cal != nil {
		h.Cal.AddHoliday(d)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddWorkingSaturday(w http.ResponseWriter, r *http.Request) {
	var req WorkingSaturdayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	d, err := timeclock.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid date")
		return
	}
	if !d.IsSaturday() {
		respondError(w, http.StatusBadRequest, "bad_request", "date is not a Saturday")
		return
	}
	if err := h.Registry.AddWorkingSaturday(r.Context(), d); err != nil {
		h.respondEngineError(w, err)
		return
	}
	if h.Cal != nil {
		h.Cal.AddWorkingSaturday(d)
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkReferences verifies every sub-task client and task-master
// reference resolves to an active registry record. A non-empty message
// means the request is bad; a non-nil error means the lookup itself
// failed and the caller must not treat the entry as invalid.
func (h *Handler) checkReferences(ctx context.Context, e *timesheet.TaskEntry) (string, error) {
	for _, st := range e.SubTasks {
		if st.Client != "" {
			c, err := h.Registry.Client(ctx, st.Client)
			switch {
			case errors.Is(err, timesheet.ErrClientNotFound):
				return fmt.Sprintf("unknown client %q", st.Client), nil
			case err != nil:
				return "", fmt.Errorf("look up client %q: %w", st.Client, err)
			case !c.Active:
				return fmt.Sprintf("client %q is inactive", st.Client), nil
			}
		}
		if st.TaskMaster != "" {
			tm, err := h.Registry.TaskMaster(ctx, st.TaskMaster)
			switch {
			case errors.Is(err, timesheet.ErrTaskMasterNotFound):
				return fmt.Sprintf("unknown task master %q", st.TaskMaster), nil
			case err != nil:
				return "", fmt.Errorf("look up task master %q: %w", st.TaskMaster, err)
			case !tm.Active:
				return fmt.Sprintf("task master %q is inactive", st.TaskMaster), nil
			}
		}
	}
	return "", nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) notifyTransition(r *http.Request, res *engine.TransitionResult) {
	if res == nil {
		return
	}
	if err := h.Notifier.TransitionApplied(r.Context(), *res); err != nil {
		// The transition is committed; a lost notification is log-only.
		h.Log.Warn("notification failed", zap.Error(err), zap.String("id", res.ID))
	}
}

func (h *Handler) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrTaskEntryNotFound), errors.Is(err, engine.ErrLeaveNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	if code := rules.Code(err); code != "" {
		respondError(w, violationStatus(code), code, err.Error())
		return
	}

	h.Log.Error("internal error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal", "internal error")
}

func violationStatus(code string) int {
	switch code {
	case "invalid_range", "invalid_hours", "empty_sub_task_set":
		return http.StatusBadRequest
	case "forbidden":
		return http.StatusForbidden
	case "daily_hours_exceeded", "leave_overlap", "leave_task_conflict", "invalid_transition":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorDTO{Code: code, Message: message})
}
