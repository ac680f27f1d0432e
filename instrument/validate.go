package instrument

import (
	"fmt"
	"math"
)

// Range is an inclusive numeric bound for one instrument parameter.
type Range struct {
	// Name identifies the parameter in error messages, e.g. "voltage".
	Name string
	// Unit is appended to values in error messages, e.g. "V".
	Unit string
	Min  float64
	Max  float64
}

// Check validates v against the range. Values outside [Min, Max], NaN and
// infinities fail with ErrValueOutOfRange.
func (r Range) Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrValueOutOfRange, r.Name)
	}
	if v < r.Min || v > r.Max {
		return fmt.Errorf("%w: %s %g%s outside [%g%s, %g%s]",
			ErrValueOutOfRange, r.Name, v, r.Unit, r.Min, r.Unit, r.Max, r.Unit)
	}

	return nil
}

// Discrete is a set of accepted values for one instrument parameter, such
// as the 1-2-5 vertical scale steps of an oscilloscope.
type Discrete struct {
	Name   string
	Unit   string
	Values []float64
}

// Check validates that v matches one of the accepted values within a small
// relative tolerance.
func (d Discrete) Check(v float64) error {
	for _, allowed := range d.Values {
		if closeEnough(v, allowed) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s %g%s is not an accepted setting", ErrValueOutOfRange, d.Name, v, d.Unit)
}

// Nearest returns the accepted value closest to v. It is used to snap
// requested settings onto the instrument's discrete steps.
func (d Discrete) Nearest(v float64) float64 {
	if len(d.Values) == 0 {
		return v
	}

	best := d.Values[0]
	for _, allowed := range d.Values[1:] {
		if math.Abs(allowed-v) < math.Abs(best-v) {
			best = allowed
		}
	}

	return best
}

func closeEnough(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))

	return diff <= scale*1e-9
}
