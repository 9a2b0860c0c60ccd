package timesheet

import (
	"errors"
	"time"
)

// ErrClientNotFound is returned by registry lookups for an unknown id.
var ErrClientNotFound = errors.New("client not found")

// Client is the externally owned client record sub-tasks attribute work
// to. The aggregate only reads the id; the API layer checks the active
// flag before accepting new sub-tasks.
type Client struct {
	ID        ClientID
	Name      string
	Active    bool
	CreatedAt time.Time
}
