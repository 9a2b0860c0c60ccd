package leave_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/approval"
	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/leave"
	"github.com/warp/timesheet-engine/rules"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func mar(d int) timeclock.Date { return timeclock.NewDate(2025, time.March, d) }

func request(t *testing.T, id string, startDay, endDay int, status approval.Status) leave.Request {
	t.Helper()
	r, err := leave.NewRequest(leave.RequestID(id), "emp-1", mar(startDay), mar(endDay),
		timeclock.MustHours(8), "vacation")
	require.NoError(t, err)
	r.Status = status
	return *r
}

func taskOn(id string, day int, hours float64, status approval.Status) timesheet.TaskEntry {
	return timesheet.TaskEntry{
		ID:       timesheet.EntryID(id),
		Owner:    identity.UserID("emp-1"),
		WorkDate: mar(day),
		Status:   status,
		SubTasks: []timesheet.SubTask{
			{Title: "work", Hours: timeclock.MustHours(hours)},
		},
	}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewRequest_EndBeforeStartRejected(t *testing.T) {
	_, err := leave.NewRequest("l1", "emp-1", mar(10), mar(9), timeclock.MustHours(8), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrInvalidRange)

	var v *rules.InvalidRangeError
	require.ErrorAs(t, err, &v)
	assert.True(t, v.Start.Equal(mar(10)))
	assert.True(t, v.End.Equal(mar(9)))
}

func TestNewRequest_ClassifiesKindByHours(t *testing.T) {
	cases := []struct {
		hours float64
		kind  leave.Kind
	}{
		{1, leave.KindShortLeave},
		{2, leave.KindShortLeave},
		{3, leave.KindHalfDay},
		{4, leave.KindHalfDay},
		{5, leave.KindFullDay},
		{8, leave.KindFullDay},
	}
	for _, tc := range cases {
		r, err := leave.NewRequest("l1", "emp-1", mar(10), mar(10),
			timeclock.MustHours(tc.hours), "")
		require.NoError(t, err)
		assert.Equal(t, tc.kind, r.Kind, "hours %v", tc.hours)
	}
}

// =============================================================================
// LEAVE/LEAVE OVERLAP
// =============================================================================

func TestValidateCreate_OverlapRejected(t *testing.T) {
	// GIVEN: An approved request covering March 10-14
	// WHEN: A new request for March 14-18 (shares the 14th)
	// THEN: LeaveOverlap naming the conflicting request

	existing := []leave.Request{request(t, "l1", 10, 14, approval.StatusApproved)}
	candidate := request(t, "l2", 14, 18, approval.StatusDraft)

	err := leave.ValidateCreate(existing, nil, &candidate)
	require.ErrorIs(t, err, rules.ErrLeaveOverlap)

	var v *rules.LeaveOverlapError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "l1", v.ConflictingID)
}

func TestValidateCreate_AdjacentRangesAllowed(t *testing.T) {
	// March 10-14 then March 15-18: no shared day, no conflict.
	existing := []leave.Request{request(t, "l1", 10, 14, approval.StatusSubmitted)}
	candidate := request(t, "l2", 15, 18, approval.StatusDraft)

	assert.NoError(t, leave.ValidateCreate(existing, nil, &candidate))
}

func TestValidateCreate_RejectedLeaveDoesNotBlock(t *testing.T) {
	// GIVEN: A rejected request covering March 10-14
	// WHEN: A new request for the same span
	// THEN: Accepted; rejected records are history, not blockers

	existing := []leave.Request{request(t, "l1", 10, 14, approval.StatusRejected)}
	candidate := request(t, "l2", 10, 14, approval.StatusDraft)

	assert.NoError(t, leave.ValidateCreate(existing, nil, &candidate))
}

func TestValidateCreate_OwnPriorVersionSkipped(t *testing.T) {
	// Submit-time re-validation sees the draft itself in the snapshot.
	existing := []leave.Request{request(t, "l1", 10, 14, approval.StatusDraft)}
	candidate := request(t, "l1", 10, 14, approval.StatusDraft)

	assert.NoError(t, leave.ValidateCreate(existing, nil, &candidate))
}

func TestValidateCreate_DraftLeaveBlocks(t *testing.T) {
	// Even a draft blocks: two pending requests for the same days would
	// both be approvable.
	existing := []leave.Request{request(t, "l1", 12, 12, approval.StatusDraft)}
	candidate := request(t, "l2", 10, 14, approval.StatusDraft)

	assert.ErrorIs(t, leave.ValidateCreate(existing, nil, &candidate), rules.ErrLeaveOverlap)
}

func TestValidateCreate_RandomizedOverlapProperty(t *testing.T) {
	// Randomized ranges: the validator conflicts exactly when the inclusive
	// intersection is non-empty.
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		s1, s2 := 1+rng.Intn(25), 1+rng.Intn(25)
		e1, e2 := s1+rng.Intn(5), s2+rng.Intn(5)

		existing := []leave.Request{request(t, "l1", s1, e1, approval.StatusSubmitted)}
		candidate := request(t, fmt.Sprintf("l2-%d", i), s2, e2, approval.StatusDraft)

		err := leave.ValidateCreate(existing, nil, &candidate)
		intersects := s1 <= e2 && s2 <= e1
		if intersects {
			assert.ErrorIs(t, err, rules.ErrLeaveOverlap, "[%d,%d] vs [%d,%d]", s1, e1, s2, e2)
		} else {
			assert.NoError(t, err, "[%d,%d] vs [%d,%d]", s1, e1, s2, e2)
		}
	}
}

// =============================================================================
// LEAVE/TASK CONFLICT
// =============================================================================

func TestValidateCreate_TaskEntryInRangeRejected(t *testing.T) {
	// GIVEN: A submitted 6h entry on March 12
	// WHEN: Leave covering March 10-14
	// THEN: LeaveTaskConflict naming the date and entry

	entries := []timesheet.TaskEntry{taskOn("e1", 12, 6, approval.StatusSubmitted)}
	candidate := request(t, "l1", 10, 14, approval.StatusDraft)

	err := leave.ValidateCreate(nil, entries, &candidate)
	require.ErrorIs(t, err, rules.ErrLeaveTaskConflict)

	var v *rules.LeaveTaskConflictError
	require.ErrorAs(t, err, &v)
	assert.True(t, v.Date.Equal(mar(12)))
	assert.Equal(t, "e1", v.EntryID)
}

func TestValidateCreate_RejectedTaskEntryIgnored(t *testing.T) {
	entries := []timesheet.TaskEntry{taskOn("e1", 12, 6, approval.StatusRejected)}
	candidate := request(t, "l1", 10, 14, approval.StatusDraft)

	assert.NoError(t, leave.ValidateCreate(nil, entries, &candidate))
}

func TestValidateCreate_ZeroHourEntryIgnored(t *testing.T) {
	// An empty draft entry on the day carries no hours and does not block.
	entries := []timesheet.TaskEntry{{
		ID: "e1", Owner: "emp-1", WorkDate: mar(12), Status: approval.StatusDraft,
	}}
	candidate := request(t, "l1", 10, 14, approval.StatusDraft)

	assert.NoError(t, leave.ValidateCreate(nil, entries, &candidate))
}

func TestValidateCreate_EarliestConflictReported(t *testing.T) {
	// Entries on March 13 and March 11: the violation names the 11th
	// regardless of snapshot order.
	entries := []timesheet.TaskEntry{
		taskOn("e-later", 13, 2, approval.StatusDraft),
		taskOn("e-earlier", 11, 2, approval.StatusDraft),
	}
	candidate := request(t, "l1", 10, 14, approval.StatusDraft)

	err := leave.ValidateCreate(nil, entries, &candidate)
	var v *rules.LeaveTaskConflictError
	require.ErrorAs(t, err, &v)
	assert.True(t, v.Date.Equal(mar(11)))
	assert.Equal(t, "e-earlier", v.EntryID)
}

func TestRequest_Blocks(t *testing.T) {
	r := request(t, "l1", 10, 10, approval.StatusRejected)
	assert.False(t, r.Blocks())

	for _, s := range []approval.Status{approval.StatusDraft, approval.StatusSubmitted, approval.StatusApproved} {
		r.Status = s
		assert.True(t, r.Blocks(), "status %s", s)
	}
}
