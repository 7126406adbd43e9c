package searcher

import (
	"math"
	"sync"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// Searcher is a reusable execution context for a single classification query.
// It owns all scratch memory required for the query.
//
// Searcher is NOT thread-safe. It is intended to be owned by a single goroutine
// during a query.
type Searcher struct {
	// Neighbors is a max-heap holding the K best candidates found so far.
	Neighbors *PriorityQueue

	// Votes counts neighbors (or radius hits) per class.
	Votes []int

	// Closest tracks the smallest distance seen per class.
	Closest []float64
}

// New creates a Searcher sized for k neighbors and the given number of classes.
func New(k, classes int) *Searcher {
	s := &Searcher{
		Neighbors: NewPriorityQueue(true),
	}
	s.Reset(k, classes)
	return s
}

// Reset prepares the Searcher for a new query.
func (s *Searcher) Reset(k, classes int) {
	s.Neighbors.Reset()
	s.Neighbors.Grow(k)

	if cap(s.Votes) < classes {
		s.Votes = make([]int, classes)
		s.Closest = make([]float64, classes)
	}
	s.Votes = s.Votes[:classes]
	s.Closest = s.Closest[:classes]
	for c := range s.Votes {
		s.Votes[c] = 0
		s.Closest[c] = posInf
	}
}

// Winner returns the class with the most votes. Ties go to the class with the
// strictly smaller closest distance, then to the lowest class index. A class
// with zero votes only wins when every class has zero votes.
func (s *Searcher) Winner() int {
	winner := 0
	for c := 1; c < len(s.Votes); c++ {
		if s.Votes[c] > s.Votes[winner] ||
			(s.Votes[c] == s.Votes[winner] && s.Closest[c] < s.Closest[winner]) {
			winner = c
		}
	}
	return winner
}

// Pool manages reusable Searchers.
type Pool struct {
	p sync.Pool
}

// NewPool creates a Searcher pool.
func NewPool() *Pool {
	return &Pool{
		p: sync.Pool{
			New: func() any { return New(0, 0) },
		},
	}
}

// Get returns a Searcher reset for k neighbors and the given number of classes.
func (p *Pool) Get(k, classes int) *Searcher {
	s := p.p.Get().(*Searcher)
	s.Reset(k, classes)
	return s
}

// Put returns a Searcher to the pool.
func (p *Pool) Put(s *Searcher) {
	p.p.Put(s)
}
