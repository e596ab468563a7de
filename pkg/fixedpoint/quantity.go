// Package fixedpoint implements a ~6-fractional-digit quantity type for
// inventory bookkeeping, so that repeated small trades don't accumulate
// floating-point drift across a long-running simulation.
package fixedpoint

import (
	"fmt"
	"math"
)

// Scale is the number of representable fractional digits (1,000,000ths).
const Scale = 1_000_000

// Quantity is a fixed-point number stored as an integer count of 1/Scale
// units. The zero value is zero quantity.
type Quantity struct {
	micros int64
}

// Zero is the additive identity.
var Zero = Quantity{}

// FromFloat builds a Quantity from a float64, rounding to the nearest
// representable micro-unit.
func FromFloat(v float64) Quantity {
	return Quantity{micros: int64(math.Round(v * Scale))}
}

// FromInt builds a whole-unit Quantity.
func FromInt(v int64) Quantity {
	return Quantity{micros: v * Scale}
}

// Float64 returns the floating-point value of the quantity, for reporting
// and controller-facing APIs only; all invariant-bearing arithmetic stays in
// micro-units.
func (q Quantity) Float64() float64 {
	return float64(q.micros) / Scale
}

// Micros returns the raw micro-unit count.
func (q Quantity) Micros() int64 {
	return q.micros
}

// IsZero reports whether the quantity is exactly zero.
func (q Quantity) IsZero() bool {
	return q.micros == 0
}

// IsNegative reports whether the quantity is below zero. No inventory
// value should ever observably hold this state; it exists so callers can
// assert the invariant rather than silently clamp.
func (q Quantity) IsNegative() bool {
	return q.micros < 0
}

// Add returns q + other.
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{micros: q.micros + other.micros}
}

// Sub returns q - other. Callers that must not underflow should check
// GreaterOrEqual before calling, then treat a resulting IsNegative() as a
// protocol violation.
func (q Quantity) Sub(other Quantity) Quantity {
	return Quantity{micros: q.micros - other.micros}
}

// GreaterOrEqual reports whether q >= other.
func (q Quantity) GreaterOrEqual(other Quantity) bool {
	return q.micros >= other.micros
}

// String renders the quantity with up to 6 fractional digits, trimming
// trailing zeros.
func (q Quantity) String() string {
	whole := q.micros / Scale
	frac := q.micros % Scale
	if frac < 0 {
		frac = -frac
	}
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := fmt.Sprintf("%d.%06d", whole, frac)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}
