/*
Package memory provides an in-memory implementation of the persistence
collaborator. For tests and development.

PURPOSE:
  Implements engine.TxStore with a single mutex and snapshot-rollback
  transactions, plus identity.Directory and client/calendar lookups for
  the API layer.

CONCURRENCY:
  One store-wide mutex serializes WithTx bodies, which is exactly the
  single-writer-per-aggregate discipline the engine's transaction
  contract asks for: of two racing approvals, the second observes the
  first's committed state.

SEE ALSO:
  - engine/collab.go: the interfaces implemented here
  - store/sqlite: the production implementation
*/
package memory

import (
	"context"
	"sync"

	"github.com/warp/timesheet-engine/engine"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/leave"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// Store keeps everything in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	entries     map[timesheet.EntryID]timesheet.TaskEntry
	leaves      map[leave.RequestID]leave.Request
	users       map[identity.UserID]identity.User
	clients     map[timesheet.ClientID]timesheet.Client
	taskMasters map[timesheet.TaskMasterID]timesheet.TaskMaster

	calendar *timeclock.Calendar
}

var _ engine.TxStore = (*Store)(nil)
var _ identity.Directory = (*Store)(nil)

func New() *Store {
	return &Store{
		entries:     make(map[timesheet.EntryID]timesheet.TaskEntry),
		leaves:      make(map[leave.RequestID]leave.Request),
		users:       make(map[identity.UserID]identity.User),
		clients:     make(map[timesheet.ClientID]timesheet.Client),
		taskMasters: make(map[timesheet.TaskMasterID]timesheet.TaskMaster),
		calendar:    timeclock.NewCalendar(),
	}
}

// =============================================================================
// TRANSACTIONS - snapshot, run, rollback on error
// =============================================================================

// WithTx serializes writers on the store mutex. On error the entry and
// leave maps are restored, so a failed operation applies nothing.
func (m *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entriesBackup := make(map[timesheet.EntryID]timesheet.TaskEntry, len(m.entries))
	for k, v := range m.entries {
		entriesBackup[k] = v
	}
	leavesBackup := make(map[leave.RequestID]leave.Request, len(m.leaves))
	for k, v := range m.leaves {
		leavesBackup[k] = v
	}

	if err := fn(&txView{store: m}); err != nil {
		m.entries = entriesBackup
		m.leaves = leavesBackup
		return err
	}
	return nil
}

// txView bypasses the mutex: the transaction already holds it.
type txView struct {
	store *Store
}

func (v *txView) TaskEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TaskEntry, error) {
	return v.store.taskEntryLocked(id)
}

func (v *txView) TaskEntriesForOwnerOnDate(ctx context.Context, owner identity.UserID, date timeclock.Date) ([]timesheet.TaskEntry, error) {
	return v.store.entriesOnDateLocked(owner, date), nil
}

func (v *txView) TaskEntriesForOwnerInRange(ctx context.Context, owner identity.UserID, rng timeclock.DateRange) ([]timesheet.TaskEntry, error) {
	return v.store.entriesInRangeLocked(owner, rng), nil
}

func (v *txView) LeaveRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	return v.store.leaveLocked(id)
}

func (v *txView) LeaveForOwner(ctx context.Context, owner identity.UserID) ([]leave.Request, error) {
	return v.store.leaveForOwnerLocked(owner), nil
}

func (v *txView) SaveTaskEntry(ctx context.Context, e *timesheet.TaskEntry) error {
	v.store.entries[e.ID] = *e
	return nil
}

func (v *txView) DeleteTaskEntry(ctx context.Context, id timesheet.EntryID) error {
	if _, ok := v.store.entries[id]; !ok {
		return engine.ErrTaskEntryNotFound
	}
	delete(v.store.entries, id)
	return nil
}

func (v *txView) SaveLeave(ctx context.Context, r *leave.Request) error {
	v.store.leaves[r.ID] = *r
	return nil
}

func (v *txView) DeleteLeave(ctx context.Context, id leave.RequestID) error {
	if _, ok := v.store.leaves[id]; !ok {
		return engine.ErrLeaveNotFound
	}
	delete(v.store.leaves, id)
	return nil
}

// =============================================================================
// DIRECT READS - lock per call
// =============================================================================

func (m *Store) TaskEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TaskEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taskEntryLocked(id)
}

func (m *Store) TaskEntriesForOwnerOnDate(ctx context.Context, owner identity.UserID, date timeclock.Date) ([]timesheet.TaskEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entriesOnDateLocked(owner, date), nil
}

func (m *Store) TaskEntriesForOwnerInRange(ctx context.Context, owner identity.UserID, rng timeclock.DateRange) ([]timesheet.TaskEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entriesInRangeLocked(owner, rng), nil
}

func (m *Store) LeaveRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaveLocked(id)
}

func (m *Store) LeaveForOwner(ctx context.Context, owner identity.UserID) ([]leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaveForOwnerLocked(owner), nil
}

// Writes outside WithTx take the lock individually.
func (m *Store) SaveTaskEntry(ctx context.Context, e *timesheet.TaskEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = *e
	return nil
}

func (m *Store) DeleteTaskEntry(ctx context.Context, id timesheet.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return engine.ErrTaskEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Store) SaveLeave(ctx context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves[r.ID] = *r
	return nil
}

func (m *Store) DeleteLeave(ctx context.Context, id leave.RequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leaves[id]; !ok {
		return engine.ErrLeaveNotFound
	}
	delete(m.leaves, id)
	return nil
}

// =============================================================================
// LOCKED HELPERS
// =============================================================================

func (m *Store) taskEntryLocked(id timesheet.EntryID) (*timesheet.TaskEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, engine.ErrTaskEntryNotFound
	}
	copied := e
	return &copied, nil
}

func (m *Store) entriesOnDateLocked(owner identity.UserID, date timeclock.Date) []timesheet.TaskEntry {
	var out []timesheet.TaskEntry
	for _, e := range m.entries {
		if e.Owner == owner && e.WorkDate.Equal(date) {
			out = append(out, e)
		}
	}
	return out
}

func (m *Store) entriesInRangeLocked(owner identity.UserID, rng timeclock.DateRange) []timesheet.TaskEntry {
	var out []timesheet.TaskEntry
	for _, e := range m.entries {
		if e.Owner == owner && rng.Contains(e.WorkDate) {
			out = append(out, e)
		}
	}
	return out
}

func (m *Store) leaveLocked(id leave.RequestID) (*leave.Request, error) {
	r, ok := m.leaves[id]
	if !ok {
		return nil, engine.ErrLeaveNotFound
	}
	copied := r
	return &copied, nil
}

func (m *Store) leaveForOwnerLocked(owner identity.UserID) []leave.Request {
	var out []leave.Request
	for _, r := range m.leaves {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// USERS, CLIENTS, CALENDAR
// =============================================================================

func (m *Store) SaveUser(ctx context.Context, u identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *Store) UserByID(ctx context.Context, id identity.UserID) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	copied := u
	return &copied, nil
}

func (m *Store) ListUsers(ctx context.Context) ([]identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]identity.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *Store) SaveClient(ctx context.Context, c timesheet.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}

func (m *Store) Client(ctx context.Context, id timesheet.ClientID) (*timesheet.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, timesheet.ErrClientNotFound
	}
	copied := c
	return &copied, nil
}

func (m *Store) ListClients(ctx context.Context) ([]timesheet.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]timesheet.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *Store) SaveTaskMaster(ctx context.Context, tm timesheet.TaskMaster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taskMasters[tm.ID] = tm
	return nil
}

func (m *Store) TaskMaster(ctx context.Context, id timesheet.TaskMasterID) (*timesheet.TaskMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.taskMasters[id]
	if !ok {
		return nil, timesheet.ErrTaskMasterNotFound
	}
	copied := tm
	return &copied, nil
}

func (m *Store) ListTaskMasters(ctx context.Context) ([]timesheet.TaskMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]timesheet.TaskMaster, 0, len(m.taskMasters))
	for _, tm := range m.taskMasters {
		out = append(out, tm)
	}
	return out, nil
}

func (m *Store) AddHoliday(ctx context.Context, d timeclock.Date, name string) error {
	m.calendar.AddHoliday(d)
	return nil
}

func (m *Store) AddWorkingSaturday(ctx context.Context, d timeclock.Date) error {
	m.calendar.AddWorkingSaturday(d)
	return nil
}

// LoadCalendar returns the store's live work calendar. The calendar has
// its own lock, so additions are visible to the engine immediately.
func (m *Store) LoadCalendar(ctx context.Context) (*timeclock.Calendar, error) {
	return m.calendar, nil
}
