/*
Package sqlite provides the SQLite-backed persistence collaborator.

PURPOSE:
  Implements engine.TxStore and identity.Directory on mattn/go-sqlite3,
  plus client, holiday, and working-Saturday storage for the API layer.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  users              Identity records (role, active flag)
  clients            Client registry referenced by sub-tasks
  task_masters       Admin-curated task catalog referenced by sub-tasks
  task_entries       One row per entry; status drives the lifecycle
  task_sub_entries   Ordered sub-tasks, cascade-deleted with the entry
  leave_requests     Inclusive date ranges with lifecycle status
  holidays           Work calendar: company holidays
  working_saturdays  Work calendar: Saturdays scheduled as working days

CONCURRENCY:
  A store-wide mutex serializes WithTx bodies on top of SQLite's single
  writer. The engine reloads records and re-runs validation inside
  WithTx, so of two racing approvals the second observes a terminal
  status and fails its transition.

WAL MODE:
  Opened with WAL so readers don't block behind the writer.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/collab.go: interface definitions
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/timesheet-engine/approval"
	"github.com/warp/timesheet-engine/engine"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/leave"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// Store implements the persistence collaborator on SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ engine.TxStore = (*Store)(nil)
var _ identity.Directory = (*Store)(nil)

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One pooled connection: SQLite has a single writer anyway, and a
	// :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_masters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		profitable INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_entries (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		task_name TEXT,
		status TEXT NOT NULL,
		overtime INTEGER NOT NULL DEFAULT 0,
		overtime_hours TEXT NOT NULL DEFAULT '0',
		admin_comment TEXT,
		decided_by TEXT,
		decided_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		created_by TEXT NOT NULL,
		updated_by TEXT NOT NULL
	);

	-- Hot path: the daily cap loads one owner's entries for one date.
	CREATE INDEX IF NOT EXISTS idx_task_entries_owner_date
		ON task_entries(owner_id, work_date);
	CREATE INDEX IF NOT EXISTS idx_task_entries_status
		ON task_entries(status);

	CREATE TABLE IF NOT EXISTS task_sub_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id TEXT NOT NULL REFERENCES task_entries(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		client_id TEXT,
		task_master_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		hours TEXT NOT NULL,
		productive INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_sub_entries_entry
		ON task_sub_entries(entry_id);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		hours_per_day TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		admin_comment TEXT,
		decided_by TEXT,
		decided_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		created_by TEXT NOT NULL,
		updated_by TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_owner
		ON leave_requests(owner_id);
	CREATE INDEX IF NOT EXISTS idx_leave_dates
		ON leave_requests(start_date, end_date);

	CREATE TABLE IF NOT EXISTS holidays (
		holiday_date TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS working_saturdays (
		work_date TEXT PRIMARY KEY
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// QUERYER - shared statements over *sql.DB and *sql.Tx
// =============================================================================

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements engine.Store over either the database handle or an
// open transaction.
type queries struct {
	q dbtx
}

var _ engine.Store = (*queries)(nil)

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx serializes writers on the store mutex and runs fn inside one
// SQL transaction. fn's error rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&queries{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Direct access outside a transaction delegates to the same query set.
func (s *Store) TaskEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TaskEntry, error) {
	return (&queries{q: s.db}).TaskEntry(ctx, id)
}

func (s *Store) TaskEntriesForOwnerOnDate(ctx context.Context, owner identity.UserID, date timeclock.Date) ([]timesheet.TaskEntry, error) {
	return (&queries{q: s.db}).TaskEntriesForOwnerOnDate(ctx, owner, date)
}

func (s *Store) TaskEntriesForOwnerInRange(ctx context.Context, owner identity.UserID, rng timeclock.DateRange) ([]timesheet.TaskEntry, error) {
	return (&queries{q: s.db}).TaskEntriesForOwnerInRange(ctx, owner, rng)
}

func (s *Store) LeaveRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	return (&queries{q: s.db}).LeaveRequest(ctx, id)
}

func (s *Store) LeaveForOwner(ctx context.Context, owner identity.UserID) ([]leave.Request, error) {
	return (&queries{q: s.db}).LeaveForOwner(ctx, owner)
}

func (s *Store) SaveTaskEntry(ctx context.Context, e *timesheet.TaskEntry) error {
	return s.WithTx(ctx, func(st engine.Store) error { return st.SaveTaskEntry(ctx, e) })
}

func (s *Store) DeleteTaskEntry(ctx context.Context, id timesheet.EntryID) error {
	return s.WithTx(ctx, func(st engine.Store) error { return st.DeleteTaskEntry(ctx, id) })
}

func (s *Store) SaveLeave(ctx context.Context, r *leave.Request) error {
	return s.WithTx(ctx, func(st engine.Store) error { return st.SaveLeave(ctx, r) })
}

func (s *Store) DeleteLeave(ctx context.Context, id leave.RequestID) error {
	return s.WithTx(ctx, func(st engine.Store) error { return st.DeleteLeave(ctx, id) })
}

// =============================================================================
// TASK ENTRIES
// =============================================================================

const taskEntryColumns = `id, owner_id, work_date, task_name, status,
	overtime, overtime_hours, admin_comment, decided_by, decided_at,
	created_at, updated_at, created_by, updated_by`

func (qs *queries) TaskEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TaskEntry, error) {
	row := qs.q.QueryRowContext(ctx,
		`SELECT `+taskEntryColumns+` FROM task_entries WHERE id = ?`, string(id))
	e, err := scanTaskEntry(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrTaskEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task entry: %w", err)
	}
	if err := qs.loadSubTasks(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (qs *queries) TaskEntriesForOwnerOnDate(ctx context.Context, owner identity.UserID, date timeclock.Date) ([]timesheet.TaskEntry, error) {
	return qs.queryTaskEntries(ctx,
		`SELECT `+taskEntryColumns+` FROM task_entries
		 WHERE owner_id = ? AND work_date = ? ORDER BY created_at`,
		string(owner), date.String())
}

func (qs *queries) TaskEntriesForOwnerInRange(ctx context.Context, owner identity.UserID, rng timeclock.DateRange) ([]timesheet.TaskEntry, error) {
	return qs.queryTaskEntries(ctx,
		`SELECT `+taskEntryColumns+` FROM task_entries
		 WHERE owner_id = ? AND work_date >= ? AND work_date <= ?
		 ORDER BY work_date`,
		string(owner), rng.Start.String(), rng.End.String())
}

func (qs *queries) queryTaskEntries(ctx context.Context, query string, args ...any) ([]timesheet.TaskEntry, error) {
	rows, err := qs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task entries: %w", err)
	}
	defer rows.Close()

	var out []timesheet.TaskEntry
	for rows.Next() {
		e, err := scanTaskEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task entry: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Sub-tasks are loaded after the entry cursor is drained: SQLite
	// allows one active statement per connection inside a transaction.
	for i := range out {
		if err := qs.loadSubTasks(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (qs *queries) loadSubTasks(ctx context.Context, e *timesheet.TaskEntry) error {
	rows, err := qs.q.QueryContext(ctx,
		`SELECT client_id, task_master_id, title, description, hours, productive
		 FROM task_sub_entries WHERE entry_id = ? ORDER BY position`,
		string(e.ID))
	if err != nil {
		return fmt.Errorf("query sub-tasks: %w", err)
	}
	defer rows.Close()

	e.SubTasks = nil
	for rows.Next() {
		var (
			clientID     sql.NullString
			taskMasterID sql.NullString
			title        string
			description  sql.NullString
			hoursStr     string
			productive   bool
		)
		if err := rows.Scan(&clientID, &taskMasterID, &title, &description, &hoursStr, &productive); err != nil {
			return fmt.Errorf("scan sub-task: %w", err)
		}
		hours, err := timeclock.ParseHours(hoursStr)
		if err != nil {
			return fmt.Errorf("parse sub-task hours: %w", err)
		}
		e.SubTasks = append(e.SubTasks, timesheet.SubTask{
			Client:      timesheet.ClientID(clientID.String),
			TaskMaster:  timesheet.TaskMasterID(taskMasterID.String),
			Title:       title,
			Description: description.String,
			Hours:       hours,
			Productive:  productive,
		})
	}
	return rows.Err()
}

func (qs *queries) SaveTaskEntry(ctx context.Context, e *timesheet.TaskEntry) error {
	_, err := qs.q.ExecContext(ctx, `
		INSERT INTO task_entries (`+taskEntryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			work_date = excluded.work_date,
			task_name = excluded.task_name,
			status = excluded.status,
			overtime = excluded.overtime,
			overtime_hours = excluded.overtime_hours,
			admin_comment = excluded.admin_comment,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by`,
		string(e.ID), string(e.Owner), e.WorkDate.String(), e.TaskName, string(e.Status),
		e.Overtime, e.OvertimeHours.String(),
		nullString(e.AdminComment), nullString(string(e.DecidedBy)), nullTime(e.DecidedAt),
		e.Audit.CreatedAt.Format(time.RFC3339Nano), e.Audit.UpdatedAt.Format(time.RFC3339Nano),
		string(e.Audit.CreatedBy), string(e.Audit.UpdatedBy))
	if err != nil {
		return fmt.Errorf("save task entry: %w", err)
	}

	// Sub-tasks have no identity of their own; replace them wholesale.
	if _, err := qs.q.ExecContext(ctx,
		`DELETE FROM task_sub_entries WHERE entry_id = ?`, string(e.ID)); err != nil {
		return fmt.Errorf("clear sub-tasks: %w", err)
	}
	for i, st := range e.SubTasks {
		_, err := qs.q.ExecContext(ctx, `
			INSERT INTO task_sub_entries (entry_id, position, client_id, task_master_id, title, description, hours, productive)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(e.ID), i, nullString(string(st.Client)), nullString(string(st.TaskMaster)),
			st.Title, nullString(st.Description), st.Hours.String(), st.Productive)
		if err != nil {
			return fmt.Errorf("save sub-task: %w", err)
		}
	}
	return nil
}

func (qs *queries) DeleteTaskEntry(ctx context.Context, id timesheet.EntryID) error {
	res, err := qs.q.ExecContext(ctx,
		`DELETE FROM task_entries WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete task entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrTaskEntryNotFound
	}
	return nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

const leaveColumns = `id, owner_id, start_date, end_date, hours_per_day, kind,
	reason, status, admin_comment, decided_by, decided_at,
	created_at, updated_at, created_by, updated_by`

func (qs *queries) LeaveRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	row := qs.q.QueryRowContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests WHERE id = ?`, string(id))
	r, err := scanLeave(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrLeaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load leave request: %w", err)
	}
	return r, nil
}

func (qs *queries) LeaveForOwner(ctx context.Context, owner identity.UserID) ([]leave.Request, error) {
	rows, err := qs.q.QueryContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests
		 WHERE owner_id = ? ORDER BY start_date`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("query leave requests: %w", err)
	}
	defer rows.Close()

	var out []leave.Request
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (qs *queries) SaveLeave(ctx context.Context, r *leave.Request) error {
	_, err := qs.q.ExecContext(ctx, `
		INSERT INTO leave_requests (`+leaveColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			hours_per_day = excluded.hours_per_day,
			kind = excluded.kind,
			reason = excluded.reason,
			status = excluded.status,
			admin_comment = excluded.admin_comment,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by`,
		string(r.ID), string(r.Owner), r.Range.Start.String(), r.Range.End.String(),
		r.HoursPerDay.String(), string(r.Kind), r.Reason, string(r.Status),
		nullString(r.AdminComment), nullString(string(r.DecidedBy)), nullTime(r.DecidedAt),
		r.Audit.CreatedAt.Format(time.RFC3339Nano), r.Audit.UpdatedAt.Format(time.RFC3339Nano),
		string(r.Audit.CreatedBy), string(r.Audit.UpdatedBy))
	if err != nil {
		return fmt.Errorf("save leave request: %w", err)
	}
	return nil
}

func (qs *queries) DeleteLeave(ctx context.Context, id leave.RequestID) error {
	res, err := qs.q.ExecContext(ctx,
		`DELETE FROM leave_requests WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete leave request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrLeaveNotFound
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u identity.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, email = excluded.email,
			role = excluded.role, active = excluded.active`,
		string(u.ID), u.Name, u.Email, string(u.Role), u.Active,
		u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id identity.UserID) (*identity.User, error) {
	var (
		u         identity.User
		idStr     string
		role      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, active, created_at FROM users WHERE id = ?`,
		string(id)).Scan(&idStr, &u.Name, &u.Email, &role, &u.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.ID = identity.UserID(idStr)
	u.Role = identity.Role(role)
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]identity.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, active, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []identity.User
	for rows.Next() {
		var (
			u         identity.User
			idStr     string
			role      string
			createdAt string
		)
		if err := rows.Scan(&idStr, &u.Name, &u.Email, &role, &u.Active, &createdAt); err != nil {
			return nil, err
		}
		u.ID = identity.UserID(idStr)
		u.Role = identity.Role(role)
		u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) SaveClient(ctx context.Context, c timesheet.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, active, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, active = excluded.active`,
		string(c.ID), c.Name, c.Active, c.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (s *Store) Client(ctx context.Context, id timesheet.ClientID) (*timesheet.Client, error) {
	var (
		c         timesheet.Client
		idStr     string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, active, created_at FROM clients WHERE id = ?`,
		string(id)).Scan(&idStr, &c.Name, &c.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, timesheet.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	c.ID = timesheet.ClientID(idStr)
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]timesheet.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, active, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []timesheet.Client
	for rows.Next() {
		var (
			c         timesheet.Client
			idStr     string
			createdAt string
		)
		if err := rows.Scan(&idStr, &c.Name, &c.Active, &createdAt); err != nil {
			return nil, err
		}
		c.ID = timesheet.ClientID(idStr)
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// TASK MASTERS
// =============================================================================

func (s *Store) SaveTaskMaster(ctx context.Context, tm timesheet.TaskMaster) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_masters (id, name, description, active, profitable, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description,
			active = excluded.active, profitable = excluded.profitable`,
		string(tm.ID), tm.Name, nullString(tm.Description), tm.Active, tm.Profitable,
		tm.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save task master: %w", err)
	}
	return nil
}

func (s *Store) TaskMaster(ctx context.Context, id timesheet.TaskMasterID) (*timesheet.TaskMaster, error) {
	var (
		tm          timesheet.TaskMaster
		idStr       string
		description sql.NullString
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, active, profitable, created_at FROM task_masters WHERE id = ?`,
		string(id)).Scan(&idStr, &tm.Name, &description, &tm.Active, &tm.Profitable, &createdAt)
	if err == sql.ErrNoRows {
		return nil, timesheet.ErrTaskMasterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task master: %w", err)
	}
	tm.ID = timesheet.TaskMasterID(idStr)
	tm.Description = description.String
	tm.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &tm, nil
}

func (s *Store) ListTaskMasters(ctx context.Context) ([]timesheet.TaskMaster, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, active, profitable, created_at FROM task_masters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list task masters: %w", err)
	}
	defer rows.Close()

	var out []timesheet.TaskMaster
	for rows.Next() {
		var (
			tm          timesheet.TaskMaster
			idStr       string
			description sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&idStr, &tm.Name, &description, &tm.Active, &tm.Profitable, &createdAt); err != nil {
			return nil, err
		}
		tm.ID = timesheet.TaskMasterID(idStr)
		tm.Description = description.String
		tm.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, tm)
	}
	return out, rows.Err()
}

// =============================================================================
// WORK CALENDAR
// =============================================================================

func (s *Store) AddHoliday(ctx context.Context, d timeclock.Date, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (holiday_date, name) VALUES (?, ?)
		ON CONFLICT(holiday_date) DO UPDATE SET name = excluded.name`,
		d.String(), name)
	if err != nil {
		return fmt.Errorf("add holiday: %w", err)
	}
	return nil
}

func (s *Store) AddWorkingSaturday(ctx context.Context, d timeclock.Date) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO working_saturdays (work_date) VALUES (?)`, d.String())
	if err != nil {
		return fmt.Errorf("add working saturday: %w", err)
	}
	return nil
}

// LoadCalendar reads the full work calendar. Callers reload after
// mutating holidays or working Saturdays.
func (s *Store) LoadCalendar(ctx context.Context) (*timeclock.Calendar, error) {
	cal := timeclock.NewCalendar()

	rows, err := s.db.QueryContext(ctx, `SELECT holiday_date FROM holidays`)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ds string
		if err := rows.Scan(&ds); err != nil {
			return nil, err
		}
		d, err := timeclock.ParseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("parse holiday date: %w", err)
		}
		cal.AddHoliday(d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	satRows, err := s.db.QueryContext(ctx, `SELECT work_date FROM working_saturdays`)
	if err != nil {
		return nil, fmt.Errorf("load working saturdays: %w", err)
	}
	defer satRows.Close()
	for satRows.Next() {
		var ds string
		if err := satRows.Scan(&ds); err != nil {
			return nil, err
		}
		d, err := timeclock.ParseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("parse working saturday: %w", err)
		}
		cal.AddWorkingSaturday(d)
	}
	return cal, satRows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanTaskEntry(row scanner) (*timesheet.TaskEntry, error) {
	var (
		e             timesheet.TaskEntry
		id, owner     string
		workDate      string
		taskName      sql.NullString
		status        string
		overtimeHours string
		adminComment  sql.NullString
		decidedBy     sql.NullString
		decidedAt     sql.NullString
		createdAt     string
		updatedAt     string
		createdBy     string
		updatedBy     string
	)
	if err := row.Scan(&id, &owner, &workDate, &taskName, &status,
		&e.Overtime, &overtimeHours, &adminComment, &decidedBy, &decidedAt,
		&createdAt, &updatedAt, &createdBy, &updatedBy); err != nil {
		return nil, err
	}

	e.ID = timesheet.EntryID(id)
	e.Owner = identity.UserID(owner)
	e.TaskName = taskName.String
	e.Status = approval.Status(status)
	e.AdminComment = adminComment.String
	e.DecidedBy = identity.UserID(decidedBy.String)

	var err error
	if e.WorkDate, err = timeclock.ParseDate(workDate); err != nil {
		return nil, fmt.Errorf("parse work date: %w", err)
	}
	if e.OvertimeHours, err = timeclock.ParseHours(overtimeHours); err != nil {
		return nil, fmt.Errorf("parse overtime hours: %w", err)
	}
	if decidedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, decidedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse decided_at: %w", err)
		}
		e.DecidedAt = &t
	}
	if err := scanAudit(&e.Audit, createdAt, updatedAt, createdBy, updatedBy); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanLeave(row scanner) (*leave.Request, error) {
	var (
		r            leave.Request
		id, owner    string
		startDate    string
		endDate      string
		hoursPerDay  string
		kind         string
		reason       sql.NullString
		status       string
		adminComment sql.NullString
		decidedBy    sql.NullString
		decidedAt    sql.NullString
		createdAt    string
		updatedAt    string
		createdBy    string
		updatedBy    string
	)
	if err := row.Scan(&id, &owner, &startDate, &endDate, &hoursPerDay, &kind,
		&reason, &status, &adminComment, &decidedBy, &decidedAt,
		&createdAt, &updatedAt, &createdBy, &updatedBy); err != nil {
		return nil, err
	}

	r.ID = leave.RequestID(id)
	r.Owner = identity.UserID(owner)
	r.Kind = leave.Kind(kind)
	r.Reason = reason.String
	r.Status = approval.Status(status)
	r.AdminComment = adminComment.String
	r.DecidedBy = identity.UserID(decidedBy.String)

	start, err := timeclock.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := timeclock.ParseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	if r.Range, err = timeclock.NewDateRange(start, end); err != nil {
		return nil, fmt.Errorf("stored range invalid: %w", err)
	}
	if r.HoursPerDay, err = timeclock.ParseHours(hoursPerDay); err != nil {
		return nil, fmt.Errorf("parse hours per day: %w", err)
	}
	if decidedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, decidedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse decided_at: %w", err)
		}
		r.DecidedAt = &t
	}
	if err := scanAudit(&r.Audit, createdAt, updatedAt, createdBy, updatedBy); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanAudit(a *identity.Audit, createdAt, updatedAt, createdBy, updatedBy string) error {
	var err error
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}
	a.CreatedBy = identity.UserID(createdBy)
	a.UpdatedBy = identity.UserID(updatedBy)
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
