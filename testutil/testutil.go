package testutil

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformRows generates num labeled rows of inputs features in [0, 1) with a
// uniformly drawn label in [0, classes) as the last column.
func (r *RNG) UniformRows(num, inputs, classes int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*(inputs+1))
	rows := make([][]float64, num)

	for i := range num {
		row := data[i*(inputs+1) : (i+1)*(inputs+1)]
		for j := range inputs {
			row[j] = r.rand.Float64()
		}
		row[inputs] = float64(r.rand.Intn(classes))
		rows[i] = row
	}

	return rows
}

// Clusters generates perClass labeled rows for each class. Every feature of a
// class c row is drawn from a normal distribution centered at c*separation
// with standard deviation spread. Classes are interleaved: row i belongs to
// class i%classes.
func (r *RNG) Clusters(perClass, inputs, classes int, spread, separation float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	num := perClass * classes
	data := make([]float64, num*(inputs+1))
	rows := make([][]float64, num)

	for i := range num {
		c := i % classes
		row := data[i*(inputs+1) : (i+1)*(inputs+1)]
		for j := range inputs {
			row[j] = float64(c)*separation + r.rand.NormFloat64()*spread
		}
		row[inputs] = float64(c)
		rows[i] = row
	}

	return rows
}

// CSV formats labeled rows the way data files store them: comma separated
// features followed by the integer label, one row per line.
func CSV(rows [][]float64) string {
	var sb strings.Builder
	for _, row := range rows {
		last := len(row) - 1
		for j, v := range row[:last] {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		if last > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(row[last])))
		sb.WriteByte('\n')
	}
	return sb.String()
}
