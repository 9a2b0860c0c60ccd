/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: hours travel
  as decimal strings, dates as "2006-01-02".

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  DTOs are pure data carriers. Shape validation (parseable dates and
  hours) happens in the decode helpers here; business validation belongs
  to the engine.

SEE ALSO:
  - handlers.go: Uses these types
  - rules/violations.go: Codes carried in ErrorDTO
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/timesheet-engine/identity"
	"github.com/warp/timesheet-engine/leave"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorDTO is the uniform error body. Code is stable and machine
// readable; Message is for humans.
type ErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// TASK ENTRIES
// =============================================================================

type SubTaskDTO struct {
	ClientID     string `json:"client_id,omitempty"`
	TaskMasterID string `json:"task_master_id,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Hours        string `json:"hours"`
	Productive   bool   `json:"productive"`
}

type TaskEntryDTO struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"owner_id"`
	WorkDate      string       `json:"work_date"`
	TaskName      string       `json:"task_name,omitempty"`
	SubTasks      []SubTaskDTO `json:"sub_tasks"`
	TotalHours    string       `json:"total_hours"`
	Status        string       `json:"status"`
	Overtime      bool         `json:"overtime"`
	OvertimeHours string       `json:"overtime_hours"`
	AdminComment  string       `json:"admin_comment,omitempty"`
	DecidedBy     string       `json:"decided_by,omitempty"`
	DecidedAt     *time.Time   `json:"decided_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type CreateTaskEntryRequest struct {
	WorkDate string       `json:"work_date"`
	TaskName string       `json:"task_name"`
	SubTasks []SubTaskDTO `json:"sub_tasks"`
}

// DecisionRequest carries the admin comment on approve/reject.
type DecisionRequest struct {
	Comment string `json:"comment"`
}

func taskEntryToDTO(e *timesheet.TaskEntry) TaskEntryDTO {
	subs := make([]SubTaskDTO, len(e.SubTasks))
	for i, st := range e.SubTasks {
		subs[i] = SubTaskDTO{
			ClientID:     string(st.Client),
			TaskMasterID: string(st.TaskMaster),
			Title:        st.Title,
			Description:  st.Description,
			Hours:        st.Hours.String(),
			Productive:   st.Productive,
		}
	}
	return TaskEntryDTO{
		ID:            string(e.ID),
		OwnerID:       string(e.Owner),
		WorkDate:      e.WorkDate.String(),
		TaskName:      e.TaskName,
		SubTasks:      subs,
		TotalHours:    e.TotalHours().String(),
		Status:        string(e.Status),
		Overtime:      e.Overtime,
		OvertimeHours: e.OvertimeHours.String(),
		AdminComment:  e.AdminComment,
		DecidedBy:     string(e.DecidedBy),
		DecidedAt:     e.DecidedAt,
		CreatedAt:     e.Audit.CreatedAt,
		UpdatedAt:     e.Audit.UpdatedAt,
	}
}

// decodeTaskEntry builds the domain entry from the request body. Shape
// errors come back as plain errors; the handler maps them to 400.
func decodeTaskEntry(id timesheet.EntryID, owner identity.UserID, req CreateTaskEntryRequest) (*timesheet.TaskEntry, error) {
	workDate, err := timeclock.ParseDate(req.WorkDate)
	if err != nil {
		return nil, fmt.Errorf("invalid work_date: %w", err)
	}
	subs := make([]timesheet.SubTask, len(req.SubTasks))
	for i, s := range req.SubTasks {
		hours, err := timeclock.ParseHours(s.Hours)
		if err != nil {
			return nil, fmt.Errorf("invalid hours in sub_tasks[%d]: %w", i, err)
		}
		subs[i] = timesheet.SubTask{
			Client:      timesheet.ClientID(s.ClientID),
			TaskMaster:  timesheet.TaskMasterID(s.TaskMasterID),
			Title:       s.Title,
			Description: s.Description,
			Hours:       hours,
			Productive:  s.Productive,
		}
	}
	return &timesheet.TaskEntry{
		ID:       id,
		Owner:    owner,
		WorkDate: workDate,
		TaskName: req.TaskName,
		SubTasks: subs,
	}, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type LeaveRequestDTO struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	HoursPerDay  string     `json:"hours_per_day"`
	Kind         string     `json:"kind"`
	Reason       string     `json:"reason,omitempty"`
	Status       string     `json:"status"`
	AdminComment string     `json:"admin_comment,omitempty"`
	DecidedBy    string     `json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateLeaveRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	HoursPerDay string `json:"hours_per_day"`
	Reason      string `json:"reason"`
}

func leaveToDTO(r *leave.Request) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:           string(r.ID),
		OwnerID:      string(r.Owner),
		StartDate:    r.Range.Start.String(),
		EndDate:      r.Range.End.String(),
		HoursPerDay:  r.HoursPerDay.String(),
		Kind:         string(r.Kind),
		Reason:       r.Reason,
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		DecidedBy:    string(r.DecidedBy),
		DecidedAt:    r.DecidedAt,
		CreatedAt:    r.Audit.CreatedAt,
		UpdatedAt:    r.Audit.UpdatedAt,
	}
}

// =============================================================================
// USERS, CLIENTS, CALENDAR
// =============================================================================

type UserDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

type CreateUserRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ClientDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type CreateClientRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TaskMasterDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	Profitable  bool   `json:"profitable"`
}

type CreateTaskMasterRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Profitable  *bool  `json:"profitable"`
}

type HolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type WorkingSaturdayRequest struct {
	Date string `json:"date"`
}
