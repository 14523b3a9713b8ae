package routing

import "math"

// MinHeap is a concrete-typed min-heap for the Dijkstra priority queue.
// Avoids interface boxing overhead of container/heap.
type MinHeap struct {
	items []PQItem
}

// PQItem is a priority queue entry. Dist is a travel time in seconds.
type PQItem struct {
	Node uint32
	Dist float64
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, PQItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) PeekDist() float64 {
	if len(h.items) == 0 {
		return math.Inf(1)
	}
	return h.items[0].Dist
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}

// siftUp and siftDown move a hole instead of swapping at every level.
func (h *MinHeap) siftUp(i int) {
	item := h.items[i]
	for i > 0 {
		parent := (i - 1) / 2
		if item.Dist >= h.items[parent].Dist {
			break
		}
		h.items[i] = h.items[parent]
		i = parent
	}
	h.items[i] = item
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	item := h.items[i]
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		if right := child + 1; right < n && h.items[right].Dist < h.items[child].Dist {
			child = right
		}
		if item.Dist <= h.items[child].Dist {
			break
		}
		h.items[i] = h.items[child]
		i = child
	}
	h.items[i] = item
}
