package timeclock

import "sync"

// =============================================================================
// WORK CALENDAR - Holidays and working Saturdays
// =============================================================================

// WorkCalendar answers whether a date is a company holiday or a Saturday
// scheduled as a working day. Used to classify overtime on task entries.
type WorkCalendar interface {
	IsHoliday(d Date) bool
	IsWorkingSaturday(d Date) bool
}

// IsWorkday reports whether d is a regular working day under cal:
// a non-holiday weekday, or a Saturday explicitly scheduled as working.
func IsWorkday(cal WorkCalendar, d Date) bool {
	if cal != nil && cal.IsHoliday(d) {
		return false
	}
	if d.IsSunday() {
		return false
	}
	if d.IsSaturday() {
		return cal != nil && cal.IsWorkingSaturday(d)
	}
	return true
}

// DefaultCalendar has no holidays and no working Saturdays.
type DefaultCalendar struct{}

func (DefaultCalendar) IsHoliday(Date) bool         { return false }
func (DefaultCalendar) IsWorkingSaturday(Date) bool { return false }

// Calendar is a set-backed WorkCalendar. Stores load it from their
// holiday and working-saturday tables; the API layer adds dates at
// runtime while the engine reads, hence the lock.
type Calendar struct {
	mu         sync.RWMutex
	holidays   map[Date]bool
	workingSat map[Date]bool
}

func NewCalendar() *Calendar {
	return &Calendar{
		holidays:   make(map[Date]bool),
		workingSat: make(map[Date]bool),
	}
}

func (c *Calendar) AddHoliday(d Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holidays[d] = true
}

func (c *Calendar) AddWorkingSaturday(d Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workingSat[d] = true
}

func (c *Calendar) IsHoliday(d Date) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.holidays[d]
}

func (c *Calendar) IsWorkingSaturday(d Date) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workingSat[d]
}
