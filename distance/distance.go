package distance

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ReferenceOffset is the per-dimension coordinate of the reference point used by
// OriginCache.
const ReferenceOffset = 1.0

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L2 calculates the Euclidean distance between two vectors.
func L2(a, b []float64) float64 {
	return math.Sqrt(SquaredL2(a, b))
}

// epsilon is the unit roundoff of float64.
var epsilon = math.Nextafter(1, 2) - 1

// LowerBound returns a lower bound on the squared distance between two points
// whose distances to a common reference point are a and b. It is (a-b)²
// shrunk by the rounding error of a and b, and 0 when that error dominates.
func LowerBound(a, b float64) float64 {
	d := math.Abs(a-b) - 8*epsilon*(a+b)
	if d <= 0 {
		return 0
	}
	return d * d
}

// Reference returns the reference point for the given dimensionality.
func Reference(dim int) []float64 {
	ref := make([]float64, dim)
	for i := range ref {
		ref[i] = ReferenceOffset
	}
	return ref
}

// OriginCache holds the precomputed distance of every training row to the
// reference point. It is aligned one-to-one with the rows it was built from
// and must be rebuilt whenever those rows change.
type OriginCache struct {
	ref   []float64
	dists []float64
}

// NewOriginCache computes the distance to the reference point for each row.
// All rows must have the same length.
func NewOriginCache(rows [][]float64) *OriginCache {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}

	c := &OriginCache{
		ref:   Reference(dim),
		dists: make([]float64, len(rows)),
	}
	for i, row := range rows {
		c.dists[i] = floats.Distance(row, c.ref, 2)
	}
	return c
}

// Of returns the distance of v to the reference point.
func (c *OriginCache) Of(v []float64) float64 {
	if len(c.ref) != len(v) {
		return L2(v, Reference(len(v)))
	}
	return floats.Distance(v, c.ref, 2)
}

// At returns the cached distance of row i.
func (c *OriginCache) At(i int) float64 {
	return c.dists[i]
}

// Len returns the number of cached rows.
func (c *OriginCache) Len() int {
	return len(c.dists)
}
