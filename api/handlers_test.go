package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/engine"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/store/memory"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC) // a Monday

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, identity.User{
		ID: "emp-1", Name: "Pat", Email: "pat@example.com",
		Role: identity.RoleEmployee, Active: true, CreatedAt: testNow,
	}))
	require.NoError(t, store.SaveUser(ctx, identity.User{
		ID: "admin-1", Name: "Sam", Email: "sam@example.com",
		Role: identity.RoleAdmin, Active: true, CreatedAt: testNow,
	}))
	require.NoError(t, store.SaveUser(ctx, identity.User{
		ID: "emp-gone", Name: "Alex", Email: "alex@example.com",
		Role: identity.RoleEmployee, Active: false, CreatedAt: testNow,
	}))

	cal, err := store.LoadCalendar(ctx)
	require.NoError(t, err)

	eng := engine.New(store, timeclock.FixedClock{Instant: testNow}, nil)
	eng.Calendar = cal

	h := api.NewHandler(eng, store, cal, nil, nil)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, userID string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func entryBody(hours string) map[string]any {
	return map[string]any{
		"work_date": "2025-03-10",
		"task_name": "feature work",
		"sub_tasks": []map[string]any{
			{"title": "coding", "hours": hours, "productive": true},
		},
	}
}

func createEntry(t *testing.T, srv *httptest.Server, userID, hours string) string {
	t.Helper()
	resp := doJSON(t, srv, http.MethodPost, "/api/task-entries", userID, entryBody(hours))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.TaskEntryDTO](t, resp).ID
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestAPI_MissingIdentityHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/task-entries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_UnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/task-entries", "nobody", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_DeactivatedUser(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/task-entries", "emp-gone", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_HealthzSkipsIdentity(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// TASK ENTRIES
// =============================================================================

func TestAPI_CreateTaskEntry(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", entryBody("6.5"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dto := decode[api.TaskEntryDTO](t, resp)
	assert.Equal(t, "emp-1", dto.OwnerID)
	assert.Equal(t, "DRAFT", dto.Status)
	assert.Equal(t, "6.5", dto.TotalHours)
	assert.Equal(t, "2025-03-10", dto.WorkDate)
}

func TestAPI_DailyCapConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	createEntry(t, srv, "emp-1", "7.5")

	resp := doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", entryBody("1"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	errDTO := decode[api.ErrorDTO](t, resp)
	assert.Equal(t, "daily_hours_exceeded", errDTO.Code)
}

func TestAPI_SubmitAndApprove(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createEntry(t, srv, "emp-1", "6")

	resp := doJSON(t, srv, http.MethodPost, "/api/task-entries/"+id+"/submit", "emp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SUBMITTED", decode[api.TaskEntryDTO](t, resp).Status)

	resp = doJSON(t, srv, http.MethodPost, "/api/admin/task-entries/"+id+"/approve", "admin-1",
		map[string]string{"comment": "ok"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dto := decode[api.TaskEntryDTO](t, resp)
	assert.Equal(t, "APPROVED", dto.Status)
	assert.Equal(t, "ok", dto.AdminComment)
	assert.Equal(t, "admin-1", dto.DecidedBy)
}

func TestAPI_AdminRouteRequiresAdmin(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createEntry(t, srv, "emp-1", "6")

	resp := doJSON(t, srv, http.MethodPost, "/api/admin/task-entries/"+id+"/approve", "emp-1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_SecondApprovalConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createEntry(t, srv, "emp-1", "6")

	doJSON(t, srv, http.MethodPost, "/api/task-entries/"+id+"/submit", "emp-1", nil)
	resp := doJSON(t, srv, http.MethodPost, "/api/admin/task-entries/"+id+"/approve", "admin-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/admin/task-entries/"+id+"/reject", "admin-1",
		map[string]string{"comment": "changed my mind"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", decode[api.ErrorDTO](t, resp).Code)
}

func TestAPI_RejectRequiresComment(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createEntry(t, srv, "emp-1", "6")
	doJSON(t, srv, http.MethodPost, "/api/task-entries/"+id+"/submit", "emp-1", nil)

	resp := doJSON(t, srv, http.MethodPost, "/api/admin/task-entries/"+id+"/reject", "admin-1", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/admin/task-entries/"+id+"/reject", "admin-1",
		map[string]string{"comment": "wrong client"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "REJECTED", decode[api.TaskEntryDTO](t, resp).Status)
}

func TestAPI_MalformedDecisionBodyRejected(t *testing.T) {
	// A truncated JSON body is not the same as an empty one: it must come
	// back as a parse failure, not as "no comment given".
	srv, _ := newTestServer(t)
	id := createEntry(t, srv, "emp-1", "6")
	doJSON(t, srv, http.MethodPost, "/api/task-entries/"+id+"/submit", "emp-1", nil)

	req, err := http.NewRequest(http.MethodPost,
		srv.URL+"/api/admin/task-entries/"+id+"/reject", strings.NewReader(`{"comment":`))
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "admin-1")
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid JSON body", decode[api.ErrorDTO](t, resp).Message)

	// The entry is untouched and still approvable.
	resp = doJSON(t, srv, http.MethodPost, "/api/admin/task-entries/"+id+"/approve", "admin-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "APPROVED", decode[api.TaskEntryDTO](t, resp).Status)
}

func TestAPI_GetTaskEntryOwnership(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.SaveUser(context.Background(), identity.User{
		ID: "emp-2", Name: "Kim", Email: "kim@example.com",
		Role: identity.RoleEmployee, Active: true, CreatedAt: testNow,
	}))

	id := createEntry(t, srv, "emp-1", "3")

	// The owner and an admin may read it; another employee may not.
	assert.Equal(t, http.StatusOK,
		doJSON(t, srv, http.MethodGet, "/api/task-entries/"+id, "emp-1", nil).StatusCode)
	assert.Equal(t, http.StatusOK,
		doJSON(t, srv, http.MethodGet, "/api/task-entries/"+id, "admin-1", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden,
		doJSON(t, srv, http.MethodGet, "/api/task-entries/"+id, "emp-2", nil).StatusCode)
}

func TestAPI_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/task-entries/missing", "emp-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// LEAVE
// =============================================================================

func TestAPI_LeaveLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/leave", "emp-1", map[string]string{
		"start_date": "2025-03-17", "end_date": "2025-03-21",
		"hours_per_day": "8", "reason": "vacation",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dto := decode[api.LeaveRequestDTO](t, resp)
	assert.Equal(t, "FULL_DAY", dto.Kind)
	assert.Equal(t, "DRAFT", dto.Status)

	resp = doJSON(t, srv, http.MethodPost, "/api/leave/"+dto.ID+"/submit", "emp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/admin/leave/"+dto.ID+"/approve", "admin-1",
		map[string]string{"comment": "enjoy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "APPROVED", decode[api.LeaveRequestDTO](t, resp).Status)
}

func TestAPI_LeaveInvalidRange(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/leave", "emp-1", map[string]string{
		"start_date": "2025-03-21", "end_date": "2025-03-17", "hours_per_day": "8",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_range", decode[api.ErrorDTO](t, resp).Code)
}

func TestAPI_LeaveOverlapConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	mk := func() *http.Response {
		return doJSON(t, srv, http.MethodPost, "/api/leave", "emp-1", map[string]string{
			"start_date": "2025-03-17", "end_date": "2025-03-21", "hours_per_day": "8",
		})
	}
	require.Equal(t, http.StatusCreated, mk().StatusCode)

	resp := mk()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "leave_overlap", decode[api.ErrorDTO](t, resp).Code)
}

// =============================================================================
// ADMIN: USERS AND CALENDAR
// =============================================================================

func TestAPI_CreateUserValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/admin/users", "admin-1", map[string]string{
		"id": "emp-9", "name": "Nino", "email": "n@example.com", "role": "SUPERVISOR",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/admin/users", "admin-1", map[string]string{
		"id": "emp-9", "name": "Nino", "email": "n@example.com", "role": "EMPLOYEE",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAPI_HolidayMakesHoursOvertime(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/admin/holidays", "admin-1",
		map[string]string{"date": "2025-03-10", "name": "Founders Day"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", entryBody("4"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dto := decode[api.TaskEntryDTO](t, resp)
	assert.True(t, dto.Overtime)
	assert.Equal(t, "4", dto.OvertimeHours)
}

func TestAPI_WorkingSaturdayMustBeSaturday(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/admin/working-saturdays", "admin-1",
		map[string]string{"date": "2025-03-10"}) // a Monday
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/admin/working-saturdays", "admin-1",
		map[string]string{"date": "2025-03-15"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_ClientRegistry(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/admin/clients", "admin-1",
		map[string]string{"id": "acme", "name": "Acme Corp"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/api/clients", "emp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	clients := decode[[]api.ClientDTO](t, resp)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Corp", clients[0].Name)
}

func TestAPI_UnknownClientReferenceRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	body := entryBody("4")
	body["sub_tasks"] = []map[string]any{
		{"client_id": "nope", "title": "coding", "hours": "4", "productive": true},
	}
	resp := doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	doJSON(t, srv, http.MethodPost, "/api/admin/clients", "admin-1",
		map[string]string{"id": "nope", "name": "Nope Inc"})
	resp = doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAPI_TaskMasterRegistry(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/admin/task-masters", "admin-1",
		map[string]any{"id": "code-review", "name": "Code Review", "description": "peer review"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.TaskMasterDTO](t, resp)
	assert.True(t, created.Active)
	assert.True(t, created.Profitable)

	resp = doJSON(t, srv, http.MethodGet, "/api/task-masters", "emp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	masters := decode[[]api.TaskMasterDTO](t, resp)
	require.Len(t, masters, 1)
	assert.Equal(t, "Code Review", masters[0].Name)
}

func TestAPI_UnknownTaskMasterReferenceRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	body := entryBody("4")
	body["sub_tasks"] = []map[string]any{
		{"task_master_id": "nope", "title": "review", "hours": "4", "productive": true},
	}
	resp := doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	doJSON(t, srv, http.MethodPost, "/api/admin/task-masters", "admin-1",
		map[string]any{"id": "nope", "name": "Standing Review"})
	resp = doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// flakyRegistry simulates a registry whose client lookups fail outright,
// as opposed to returning "no such client".
type flakyRegistry struct {
	*memory.Store
	clientErr error
}

func (f *flakyRegistry) Client(ctx context.Context, id timesheet.ClientID) (*timesheet.Client, error) {
	return nil, f.clientErr
}

func TestAPI_ClientLookupFailureIsServerError(t *testing.T) {
	// A broken registry must surface as 500, not masquerade as a bad
	// client reference.
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, identity.User{
		ID: "emp-1", Name: "Pat", Email: "pat@example.com",
		Role: identity.RoleEmployee, Active: true, CreatedAt: testNow,
	}))
	cal, err := store.LoadCalendar(ctx)
	require.NoError(t, err)
	eng := engine.New(store, timeclock.FixedClock{Instant: testNow}, nil)
	eng.Calendar = cal

	reg := &flakyRegistry{Store: store, clientErr: errors.New("registry unavailable")}
	h := api.NewHandler(eng, reg, cal, nil, nil)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)

	body := entryBody("4")
	body["sub_tasks"] = []map[string]any{
		{"client_id": "acme", "title": "coding", "hours": "4", "productive": true},
	}
	resp := doJSON(t, srv, http.MethodPost, "/api/task-entries", "emp-1", body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal", decode[api.ErrorDTO](t, resp).Code)
}
