package timeclock

import (
	"errors"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Exact hour quantities
// =============================================================================

// ErrNegativeHours is returned by NewHours for negative inputs. Hours are
// validated at construction so sums can never drift below zero.
var ErrNegativeHours = errors.New("hours must not be negative")

// Hours is an exact, non-negative quantity of working hours.
// Backed by decimal.Decimal so repeated addition has no floating-point drift.
type Hours struct {
	Value decimal.Decimal
}

// NewHours builds an Hours value from a float, rejecting negatives.
func NewHours(v float64) (Hours, error) {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return Hours{}, ErrNegativeHours
	}
	return Hours{Value: d}, nil
}

// MustHours is NewHours for literals known to be valid (tests, defaults).
func MustHours(v float64) Hours {
	h, err := NewHours(v)
	if err != nil {
		panic(err)
	}
	return h
}

// ParseHours parses a decimal string such as "7.5".
func ParseHours(s string) (Hours, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Hours{}, err
	}
	if d.IsNegative() {
		return Hours{}, ErrNegativeHours
	}
	return Hours{Value: d}, nil
}

func ZeroHours() Hours { return Hours{Value: decimal.Zero} }

func (h Hours) Add(other Hours) Hours         { return Hours{Value: h.Value.Add(other.Value)} }
func (h Hours) Sub(other Hours) Hours         { return Hours{Value: h.Value.Sub(other.Value)} }
func (h Hours) IsZero() bool                  { return h.Value.IsZero() }
func (h Hours) IsPositive() bool              { return h.Value.IsPositive() }
func (h Hours) GreaterThan(other Hours) bool  { return h.Value.GreaterThan(other.Value) }
func (h Hours) LessThan(other Hours) bool     { return h.Value.LessThan(other.Value) }
func (h Hours) Equal(other Hours) bool        { return h.Value.Equal(other.Value) }
func (h Hours) Float64() float64              { f, _ := h.Value.Float64(); return f }
func (h Hours) String() string                { return h.Value.String() }

// IsMultipleOf reports whether h is an exact multiple of the increment.
// A zero increment means no granularity is enforced.
func (h Hours) IsMultipleOf(increment Hours) bool {
	if increment.IsZero() {
		return true
	}
	return h.Value.Mod(increment.Value).IsZero()
}

// SumHours returns the exact sum of a sequence of hour values.
func SumHours(hs []Hours) Hours {
	total := decimal.Zero
	for _, h := range hs {
		total = total.Add(h.Value)
	}
	return Hours{Value: total}
}
