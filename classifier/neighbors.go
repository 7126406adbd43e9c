package classifier

import (
	"math"
	"sync/atomic"

	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/distance"
	"github.com/hupe1980/vecknn/internal/searcher"
)

// pruneSlack is the relative margin a lower bound must exceed the current K-th
// distance by before a row is skipped. It absorbs the rounding of the cached
// square roots so that pruning stays exact.
const pruneSlack = 1e-9

// Neighbor is a training row and its squared distance to a query.
type Neighbor struct {
	Row      int
	Distance float64
}

// Stats counts distance computations performed and skipped by pruning.
type Stats struct {
	Computed int64
	Pruned   int64
}

// Neighbors is the k-nearest-neighbor classifier.
type Neighbors struct {
	rows    [][]float64
	labels  []int
	classes int
	origin  *distance.OriginCache
	pruning bool
	pool    *searcher.Pool

	computed atomic.Int64
	pruned   atomic.Int64
}

// NewNeighbors creates a k-NN classifier over the training split. The origin
// distance cache is built here, once, from the immutable training rows.
func NewNeighbors(train *dataset.Dataset, optFns ...Option) *Neighbors {
	o := applyOptions(optFns)

	n := &Neighbors{
		rows:    train.Rows(),
		labels:  train.Labels(),
		classes: train.Classes(),
		pruning: o.pruning,
		pool:    searcher.NewPool(),
	}
	if n.pruning {
		n.origin = distance.NewOriginCache(n.rows)
	}
	return n
}

// Classify returns the majority class among the K nearest training rows.
//
// Ties in the vote go to the class whose nearest neighbor in the neighborhood is
// strictly closer, then to the lowest class index. K is clamped to the number
// of training rows.
func (n *Neighbors) Classify(query []float64, p Param) int {
	k := n.clampK(p.K)
	s := n.pool.Get(k, n.classes)
	defer n.pool.Put(s)

	n.search(s, query, k)

	for _, it := range s.Neighbors.Items() {
		c := n.labels[it.Node]
		s.Votes[c]++
		if it.Distance < s.Closest[c] {
			s.Closest[c] = it.Distance
		}
	}
	return s.Winner()
}

// Nearest returns the K nearest training rows in ascending distance order.
func (n *Neighbors) Nearest(query []float64, k int) []Neighbor {
	k = n.clampK(k)
	s := n.pool.Get(k, n.classes)
	defer n.pool.Put(s)

	n.search(s, query, k)

	out := make([]Neighbor, s.Neighbors.Len())
	for i := len(out) - 1; i >= 0; i-- {
		it, _ := s.Neighbors.PopItem()
		out[i] = Neighbor{Row: it.Node, Distance: it.Distance}
	}
	return out
}

// Stats returns the cumulative distance computation counters.
func (n *Neighbors) Stats() Stats {
	return Stats{
		Computed: n.computed.Load(),
		Pruned:   n.pruned.Load(),
	}
}

func (n *Neighbors) clampK(k int) int {
	if k > len(n.rows) {
		k = len(n.rows)
	}
	if k < 1 && len(n.rows) > 0 {
		k = 1
	}
	return k
}

func (n *Neighbors) search(s *searcher.Searcher, query []float64, k int) {
	var qo float64
	if n.pruning {
		qo = n.origin.Of(query)
	}

	var computed, pruned int64
	for i, row := range n.rows {
		if n.pruning && prunable(n.origin.At(i), qo, s.Neighbors.Bound(k)) {
			pruned++
			continue
		}
		d := distance.SquaredL2(query, row)
		computed++
		s.Neighbors.PushItemBounded(searcher.PriorityQueueItem{Node: i, Distance: d}, k)
	}

	n.computed.Add(computed)
	n.pruned.Add(pruned)
}

// prunable reports whether a row at origin distance a can be skipped for a query
// at origin distance b when the current K-th smallest squared distance is bound.
// bound is +Inf until K rows have been recorded, so nothing is skipped early.
func prunable(a, b, bound float64) bool {
	if math.IsInf(bound, 1) {
		return false
	}
	return distance.LowerBound(a, b) > bound*(1+pruneSlack)
}
