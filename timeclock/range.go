package timeclock

import "errors"

// =============================================================================
// DATE RANGE - Inclusive [Start, End]
// =============================================================================

// ErrEndBeforeStart is returned by NewDateRange when the range is malformed.
// Callers building domain objects wrap this into their own violation type.
var ErrEndBeforeStart = errors.New("invalid range: end before start")

// DateRange is an inclusive calendar date range [Start, End].
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange builds a range, rejecting End < Start at construction time.
func NewDateRange(start, end Date) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, ErrEndBeforeStart
	}
	return DateRange{Start: start, End: end}, nil
}

// SingleDay returns the one-day range covering d.
func SingleDay(d Date) DateRange {
	return DateRange{Start: d, End: d}
}

// Overlaps reports whether two inclusive ranges intersect:
// start_a <= end_b AND start_b <= end_a.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(r.End)
}

// Contains reports whether d falls within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns every date in the range, in order.
func (r DateRange) Days() []Date {
	var days []Date
	for cur := r.Start; cur.BeforeOrEqual(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

// DayCount returns the number of calendar days covered.
func (r DateRange) DayCount() int {
	return int(r.End.Time().Sub(r.Start.Time()).Hours()/24) + 1
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
