package classifier

import (
	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/distance"
	"github.com/hupe1980/vecknn/internal/searcher"
)

// Ball is the radius classifier. It ignores K.
type Ball struct {
	rows    [][]float64
	labels  []int
	classes int
	pool    *searcher.Pool
}

// NewBall creates a radius classifier over the training split.
func NewBall(train *dataset.Dataset) *Ball {
	return &Ball{
		rows:    train.Rows(),
		labels:  train.Labels(),
		classes: train.Classes(),
		pool:    searcher.NewPool(),
	}
}

// Classify returns the class with the most training rows within radius D of the
// query (inclusive). Ties, including the case where no row falls inside the
// radius, go to the class with the nearest row overall, then to the lowest
// class index.
func (b *Ball) Classify(query []float64, p Param) int {
	s := b.pool.Get(0, b.classes)
	defer b.pool.Put(s)

	b.count(s, query, p.D)
	return s.Winner()
}

// Hits returns the number of training rows of each class within radius d of
// the query.
func (b *Ball) Hits(query []float64, d float64) []int {
	s := b.pool.Get(0, b.classes)
	defer b.pool.Put(s)

	b.count(s, query, d)

	hits := make([]int, b.classes)
	copy(hits, s.Votes)
	return hits
}

func (b *Ball) count(s *searcher.Searcher, query []float64, radius float64) {
	r2 := radius * radius
	for i, row := range b.rows {
		d := distance.SquaredL2(query, row)
		c := b.labels[i]

		if d <= r2 {
			s.Votes[c]++
		}
		if d < s.Closest[c] {
			s.Closest[c] = d
		}
	}
}
