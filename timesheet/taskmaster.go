package timesheet

import (
	"errors"
	"time"
)

// ErrTaskMasterNotFound is returned by registry lookups for an unknown id.
var ErrTaskMasterNotFound = errors.New("task master not found")

// TaskMaster is an admin-curated catalog entry for standard work items.
// Sub-tasks may reference one; the API layer checks the active flag the
// same way it does for clients.
type TaskMaster struct {
	ID          TaskMasterID
	Name        string
	Description string
	Active      bool
	Profitable  bool
	CreatedAt   time.Time
}
