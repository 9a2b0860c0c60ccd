/*
Package timeclock provides the time accounting primitives for the
timesheet engine.

PURPOSE:
  Value types and pure functions for calendar dates, inclusive date
  ranges, exact hour arithmetic, and the work calendar. Everything the
  aggregates need to reason about "a day of work" lives here.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: a calendar date at day granularity, normalized to UTC
  - Clock: injected time source so validation stays deterministic

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for hours, never float64
  2. Normalization: all dates collapse to UTC midnight before comparison
  3. Determinism: the engine never reads the ambient wall clock

SEE ALSO:
  - range.go: DateRange and overlap detection
  - hours.go: Hours arithmetic
  - calendar.go: holidays and working Saturdays
*/
package timeclock

import "time"

// =============================================================================
// DATE - Calendar date at day granularity
// =============================================================================

// Date is a calendar date normalized to UTC midnight. Construct only via
// NewDate, DateOf, or ParseDate so values stay comparable with ==.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar date. Instants in other
// zones are converted to UTC first so boundary days cannot mismatch.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.t.AddDate(0, 0, n)) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

func (d Date) IsSaturday() bool { return d.Weekday() == time.Saturday }
func (d Date) IsSunday() bool   { return d.Weekday() == time.Sunday }
func (d Date) IsWeekend() bool  { return d.IsSaturday() || d.IsSunday() }

// Time returns the underlying UTC midnight instant.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies the current instant. The engine stamps audit fields from
// an injected Clock, never from time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. For tests.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }
