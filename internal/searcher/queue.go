package searcher

// PriorityQueueItem represents an item in the priority queue.
type PriorityQueueItem struct {
	Node     int     // Node is the training row index.
	Distance float64 // Distance is the priority of the item in the queue.
}

// less orders items by distance, then by node. Equal distances therefore keep
// the item seen first (lower row index) as the better one.
func (a PriorityQueueItem) less(b PriorityQueueItem) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Node < b.Node
}

// PriorityQueue implements a binary heap holding PriorityQueueItems.
// It does NOT implement container/heap to avoid interface overhead.
type PriorityQueue struct {
	isMaxHeap bool                // true = max heap, false = min heap
	items     []PriorityQueueItem // Value-based storage
}

// NewPriorityQueue creates a new priority queue.
func NewPriorityQueue(isMaxHeap bool) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: isMaxHeap,
		items:     make([]PriorityQueueItem, 0, 16),
	}
}

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

// Grow ensures the queue can hold n items without reallocating.
func (pq *PriorityQueue) Grow(n int) {
	if cap(pq.items) < n {
		items := make([]PriorityQueueItem, len(pq.items), n)
		copy(items, pq.items)
		pq.items = items
	}
}

// TopItem returns the top element of the heap.
func (pq *PriorityQueue) TopItem() (PriorityQueueItem, bool) {
	if len(pq.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(item PriorityQueueItem) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PushItemBounded inserts an item into a bounded heap and reports whether it
// was kept. If the heap is full and the new item is not better than the top, it
// is skipped. If the heap is full and the new item is better, the top is
// replaced.
func (pq *PriorityQueue) PushItemBounded(item PriorityQueueItem, capacity int) bool {
	if capacity <= 0 {
		return false
	}
	if len(pq.items) < capacity {
		pq.PushItem(item)
		return true
	}

	top := pq.items[0]
	if pq.isMaxHeap {
		// MaxHeap: top is the worst of the smallest distances.
		if !item.less(top) {
			return false
		}
	} else {
		// MinHeap: top is the worst of the largest distances.
		if !top.less(item) {
			return false
		}
	}
	pq.items[0] = item
	pq.siftDown(0)
	return true
}

// Bound returns the distance an item must beat to enter a bounded heap of the
// given capacity. Until the heap is full every item enters, so the bound is
// +Inf for a max-heap.
func (pq *PriorityQueue) Bound(capacity int) float64 {
	if len(pq.items) < capacity || len(pq.items) == 0 {
		if pq.isMaxHeap {
			return posInf
		}
		return negInf
	}
	return pq.items[0].Distance
}

// Items returns the heap contents in heap order. The slice is only valid until
// the next mutation.
func (pq *PriorityQueue) Items() []PriorityQueueItem {
	return pq.items
}

// Len returns the number of elements in the heap.
func (pq *PriorityQueue) Len() int {
	return len(pq.items)
}

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	if pq.isMaxHeap {
		return pq.items[j].less(pq.items[i])
	}
	return pq.items[i].less(pq.items[j])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// PopItem removes and returns the top element from the heap.
func (pq *PriorityQueue) PopItem() (PriorityQueueItem, bool) {
	n := len(pq.items)
	if n == 0 {
		return PriorityQueueItem{}, false
	}

	item := pq.items[0]
	pq.items[0] = pq.items[n-1]
	pq.items = pq.items[:n-1]

	if len(pq.items) > 0 {
		pq.siftDown(0)
	}

	return item, true
}

// siftUp moves the element at index i up the heap until the heap invariant is restored.
func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.Less(i, parent) {
			break
		}
		pq.Swap(i, parent)
		i = parent
	}
}

// siftDown moves the element at index i down the heap until the heap invariant is restored.
func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		right := left + 1
		if right < n && pq.Less(right, left) {
			child = right
		}
		if !pq.Less(child, i) {
			break
		}
		pq.Swap(i, child)
		i = child
	}
}
