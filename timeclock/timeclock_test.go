package timeclock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/timeclock"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) timeclock.Date {
	return timeclock.NewDate(year, month, day)
}

func mustRange(t *testing.T, start, end timeclock.Date) timeclock.DateRange {
	t.Helper()
	r, err := timeclock.NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

// =============================================================================
// DATE TESTS
// =============================================================================

func TestDate_ParseRoundTrip(t *testing.T) {
	d, err := timeclock.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 10, d.Day())
}

func TestDate_ParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "10/03/2025", "2025-13-01", "march 10"} {
		_, err := timeclock.ParseDate(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDate_NormalizesToMidnightUTC(t *testing.T) {
	// A timestamp deep into the day in a non-UTC zone still lands on the
	// same calendar day in UTC terms.
	loc := time.FixedZone("x", -5*3600)
	d := timeclock.DateOf(time.Date(2025, time.June, 3, 23, 45, 0, 0, loc))
	assert.Equal(t, "2025-06-03", d.String())
}

func TestDate_Weekend(t *testing.T) {
	sat := date(2025, time.March, 8)
	sun := date(2025, time.March, 9)
	mon := date(2025, time.March, 10)

	assert.True(t, sat.IsSaturday())
	assert.True(t, sat.IsWeekend())
	assert.True(t, sun.IsSunday())
	assert.True(t, sun.IsWeekend())
	assert.False(t, mon.IsWeekend())
}

func TestDate_Ordering(t *testing.T) {
	a := date(2025, time.March, 10)
	b := date(2025, time.March, 11)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(b))
}

// =============================================================================
// RANGE TESTS
// =============================================================================

func TestDateRange_EndBeforeStartRejected(t *testing.T) {
	_, err := timeclock.NewDateRange(date(2025, time.March, 10), date(2025, time.March, 9))
	assert.ErrorIs(t, err, timeclock.ErrEndBeforeStart)
}

func TestDateRange_SingleDayAllowed(t *testing.T) {
	r := mustRange(t, date(2025, time.March, 10), date(2025, time.March, 10))
	assert.Equal(t, 1, r.DayCount())
}

func TestDateRange_OverlapTruthTable(t *testing.T) {
	// Inclusive intersection: ranges sharing even a single boundary day
	// overlap.
	mar := func(d int) timeclock.Date { return date(2025, time.March, d) }

	cases := []struct {
		name     string
		a, b     timeclock.DateRange
		overlaps bool
	}{
		{"disjoint before", mustRange(t, mar(1), mar(5)), mustRange(t, mar(6), mar(10)), false},
		{"disjoint after", mustRange(t, mar(6), mar(10)), mustRange(t, mar(1), mar(5)), false},
		{"shared boundary day", mustRange(t, mar(1), mar(5)), mustRange(t, mar(5), mar(10)), true},
		{"partial overlap", mustRange(t, mar(1), mar(7)), mustRange(t, mar(5), mar(10)), true},
		{"contained", mustRange(t, mar(1), mar(10)), mustRange(t, mar(3), mar(5)), true},
		{"containing", mustRange(t, mar(3), mar(5)), mustRange(t, mar(1), mar(10)), true},
		{"identical", mustRange(t, mar(2), mar(4)), mustRange(t, mar(2), mar(4)), true},
		{"single day inside", mustRange(t, mar(3), mar(3)), mustRange(t, mar(1), mar(10)), true},
		{"single day outside", mustRange(t, mar(11), mar(11)), mustRange(t, mar(1), mar(10)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlaps, tc.a.Overlaps(tc.b))
			// Overlap is symmetric.
			assert.Equal(t, tc.overlaps, tc.b.Overlaps(tc.a))
		})
	}
}

func TestDateRange_Days(t *testing.T) {
	r := mustRange(t, date(2025, time.February, 27), date(2025, time.March, 2))
	days := r.Days()

	require.Len(t, days, 4)
	assert.Equal(t, "2025-02-27", days[0].String())
	assert.Equal(t, "2025-03-02", days[3].String())
}

// =============================================================================
// HOURS TESTS
// =============================================================================

func TestHours_DecimalExactness(t *testing.T) {
	// 0.1 + 0.2 == 0.3 exactly, which float64 cannot do.
	a, err := timeclock.ParseHours("0.1")
	require.NoError(t, err)
	b, err := timeclock.ParseHours("0.2")
	require.NoError(t, err)
	c, err := timeclock.ParseHours("0.3")
	require.NoError(t, err)

	assert.True(t, a.Add(b).Equal(c))
}

func TestHours_NegativeRejected(t *testing.T) {
	_, err := timeclock.NewHours(-1)
	assert.ErrorIs(t, err, timeclock.ErrNegativeHours)
}

func TestHours_Sum(t *testing.T) {
	hs := []timeclock.Hours{
		timeclock.MustHours(2.5),
		timeclock.MustHours(3),
		timeclock.MustHours(0.25),
	}
	assert.Equal(t, "5.75", timeclock.SumHours(hs).String())
}

func TestHours_IsMultipleOf(t *testing.T) {
	quarter := timeclock.MustHours(0.25)

	assert.True(t, timeclock.MustHours(2.75).IsMultipleOf(quarter))
	assert.False(t, timeclock.MustHours(2.8).IsMultipleOf(quarter))
	// Zero increment disables the check.
	assert.True(t, timeclock.MustHours(2.8).IsMultipleOf(timeclock.ZeroHours()))
}

// =============================================================================
// CALENDAR TESTS
// =============================================================================

func TestIsWorkday(t *testing.T) {
	cal := timeclock.NewCalendar()
	holiday := date(2025, time.December, 25) // Thursday
	workingSat := date(2025, time.March, 8)
	cal.AddHoliday(holiday)
	cal.AddWorkingSaturday(workingSat)

	assert.False(t, timeclock.IsWorkday(cal, holiday), "holiday is not a workday")
	assert.True(t, timeclock.IsWorkday(cal, workingSat), "scheduled saturday is a workday")
	assert.False(t, timeclock.IsWorkday(cal, date(2025, time.March, 15)), "plain saturday")
	assert.False(t, timeclock.IsWorkday(cal, date(2025, time.March, 9)), "sunday")
	assert.True(t, timeclock.IsWorkday(cal, date(2025, time.March, 10)), "plain monday")
}

func TestIsWorkday_DefaultCalendar(t *testing.T) {
	cal := timeclock.DefaultCalendar{}

	assert.True(t, timeclock.IsWorkday(cal, date(2025, time.March, 10)))
	assert.False(t, timeclock.IsWorkday(cal, date(2025, time.March, 8)))
	assert.False(t, timeclock.IsWorkday(cal, date(2025, time.March, 9)))
}

func TestFixedClock(t *testing.T) {
	instant := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	clock := timeclock.FixedClock{Instant: instant}
	assert.Equal(t, instant, clock.Now())
}
