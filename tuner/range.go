package tuner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRange is returned for malformed hyperparameter ranges.
	ErrInvalidRange = errors.New("invalid hyperparameter range")

	// ErrNoValidation is returned when a sweep is requested without validation rows.
	ErrNoValidation = errors.New("cannot optimize hyperparameter with an empty validation split")
)

// rangeSep separates the fields of a textual range.
const rangeSep = ".."

// dTolerance is the fraction of Step by which the last radius may exceed Max
// and still be swept, absorbing floating point drift of Min + i*Step.
const dTolerance = 1e-9

// MaxDValues bounds the number of radii in a D range.
const MaxDValues = 1 << 20

// KRange is an inclusive range of neighbor counts.
type KRange struct {
	Min int
	Max int
}

// DefaultKRange is the K range used when none is configured.
var DefaultKRange = KRange{Min: 3, Max: 7}

// ParseKRange parses "min..max".
func ParseKRange(s string) (KRange, error) {
	parts := strings.Split(s, rangeSep)
	if len(parts) != 2 {
		return KRange{}, fmt.Errorf("%w: K interval %q, want min..max", ErrInvalidRange, s)
	}

	var r KRange
	var err error
	if r.Min, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return KRange{}, fmt.Errorf("%w: K interval %q: %w", ErrInvalidRange, s, err)
	}
	if r.Max, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return KRange{}, fmt.Errorf("%w: K interval %q: %w", ErrInvalidRange, s, err)
	}
	return r, nil
}

// Validate checks 1 <= Min <= Max.
func (r KRange) Validate() error {
	if r.Min < 1 || r.Max < r.Min {
		return fmt.Errorf("%w: K %s", ErrInvalidRange, r)
	}
	return nil
}

// Degenerate reports whether the range holds a single value.
func (r KRange) Degenerate() bool {
	return r.Min == r.Max
}

// Values returns the range in sweep order.
func (r KRange) Values() []int {
	if r.Max < r.Min {
		return nil
	}
	out := make([]int, 0, r.Max-r.Min+1)
	for k := r.Min; k <= r.Max; k++ {
		out = append(out, k)
	}
	return out
}

func (r KRange) String() string {
	return fmt.Sprintf("%d%s%d", r.Min, rangeSep, r.Max)
}

// DRange is a range of radii swept from Min in increments of Step while the
// radius does not exceed Max.
type DRange struct {
	Min  float64
	Step float64
	Max  float64
}

// ParseDRange parses "min..step..max".
func ParseDRange(s string) (DRange, error) {
	parts := strings.Split(s, rangeSep)
	if len(parts) != 3 {
		return DRange{}, fmt.Errorf("%w: D interval %q, want min..step..max", ErrInvalidRange, s)
	}

	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return DRange{}, fmt.Errorf("%w: D interval %q: %w", ErrInvalidRange, s, err)
		}
		vals[i] = v
	}
	return DRange{Min: vals[0], Step: vals[1], Max: vals[2]}, nil
}

// Validate checks that all fields are finite, Min <= Max and, unless the
// range is degenerate, Step > 0 with at most MaxDValues radii.
func (r DRange) Validate() error {
	for _, v := range []float64{r.Min, r.Step, r.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: D %s: bounds and step must be finite", ErrInvalidRange, r)
		}
	}
	if r.Max < r.Min {
		return fmt.Errorf("%w: D %s", ErrInvalidRange, r)
	}
	if !r.Degenerate() && r.Step <= 0 {
		return fmt.Errorf("%w: D %s: step must be positive", ErrInvalidRange, r)
	}
	if !r.Degenerate() && (r.Max-r.Min)/r.Step >= MaxDValues {
		return fmt.Errorf("%w: D %s: more than %d radii", ErrInvalidRange, r, MaxDValues)
	}
	return nil
}

// Degenerate reports whether the range holds a single value.
func (r DRange) Degenerate() bool {
	return r.Min == r.Max
}

// Values returns the radii in sweep order. It returns nil for a range that
// fails Validate.
func (r DRange) Values() []float64 {
	if r.Validate() != nil {
		return nil
	}
	if r.Degenerate() {
		return []float64{r.Min}
	}
	limit := r.Max + r.Step*dTolerance
	var out []float64
	for i := 0; i <= MaxDValues; i++ {
		d := r.Min + float64(i)*r.Step
		if d > limit {
			break
		}
		out = append(out, d)
	}
	return out
}

func (r DRange) String() string {
	return fmt.Sprintf("%g%s%g%s%g", r.Min, rangeSep, r.Step, rangeSep, r.Max)
}
