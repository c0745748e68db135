package util

import "container/heap"

// Heap is a priority queue ordered by a caller supplied comparator. Items
// that compare equal are extracted in insertion order.
type Heap[T any] struct {
	h entries[T]
}

type entry[T any] struct {
	item T
	seq  uint64
}

type entries[T any] struct {
	less func(a, b T) bool
	seq  uint64
	list []entry[T]
}

// NewHeap returns an empty heap. less(a, b) reports whether a must be
// extracted before b.
func NewHeap[T any](less func(a, b T) bool) *Heap[T] {
	return &Heap[T]{h: entries[T]{less: less}}
}

func (q *Heap[T]) Push(item T) {
	q.h.seq++
	heap.Push(&q.h, entry[T]{item: item, seq: q.h.seq})
}

// Pop removes and returns the highest priority item. ok is false when the
// heap is empty.
func (q *Heap[T]) Pop() (item T, ok bool) {
	if len(q.h.list) == 0 {
		return item, false
	}
	e := heap.Pop(&q.h).(entry[T])
	return e.item, true
}

// Peek returns the highest priority item without removing it.
func (q *Heap[T]) Peek() (item T, ok bool) {
	if len(q.h.list) == 0 {
		return item, false
	}
	return q.h.list[0].item, true
}

func (q *Heap[T]) Len() int {
	return len(q.h.list)
}

func (h entries[T]) Len() int { return len(h.list) }

func (h entries[T]) Less(i, j int) bool {
	a, b := h.list[i], h.list[j]
	if h.less(a.item, b.item) {
		return true
	}
	if h.less(b.item, a.item) {
		return false
	}
	return a.seq < b.seq
}

func (h entries[T]) Swap(i, j int) { h.list[i], h.list[j] = h.list[j], h.list[i] }

func (h *entries[T]) Push(x any) {
	h.list = append(h.list, x.(entry[T]))
}

func (h *entries[T]) Pop() any {
	old := h.list
	n := len(old)
	e := old[n-1]
	var zero entry[T]
	old[n-1] = zero
	h.list = old[:n-1]
	return e
}
