package engine

import "sync"

// RingBuffer is a generic, thread-safe, fixed-capacity circular buffer.
// Items are kept in insertion order; when full, Add overwrites the oldest.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int
	count int
	cap   int
}

// NewRingBuffer creates a new RingBuffer with the given capacity.
// A capacity below one is raised to one.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{
		items: make([]T, capacity),
		cap:   capacity,
	}
}

// Add inserts an item into the ring buffer, overwriting the oldest if full.
func (r *RingBuffer[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[r.head] = item
	r.head = (r.head + 1) % r.cap
	if r.count < r.cap {
		r.count++
	}
}

// DropWhile removes items from the oldest end for as long as drop reports
// true, and returns how many were removed.
func (r *RingBuffer[T]) DropWhile(drop func(T) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	removed := 0
	for r.count > 0 {
		idx := r.oldestLocked()
		if !drop(r.items[idx]) {
			break
		}
		r.items[idx] = zero
		r.count--
		removed++
	}
	return removed
}

// Len returns the number of items currently in the buffer.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Cap returns the fixed capacity of the buffer.
func (r *RingBuffer[T]) Cap() int {
	return r.cap
}

// All returns all items in order from oldest to newest.
func (r *RingBuffer[T]) All() []T {
	return r.Filter(nil)
}

// Filter returns, oldest first, the items for which keep reports true.
// A nil keep returns every item.
func (r *RingBuffer[T]) Filter(keep func(T) bool) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]T, 0, r.count)
	start := r.oldestLocked()
	for i := 0; i < r.count; i++ {
		item := r.items[(start+i)%r.cap]
		if keep == nil || keep(item) {
			result = append(result, item)
		}
	}
	return result
}

// Last returns the most recently added item.
func (r *RingBuffer[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	if r.count == 0 {
		return zero, false
	}
	idx := (r.head - 1 + r.cap) % r.cap
	return r.items[idx], true
}

// oldestLocked returns the slot index of the oldest item. The caller must
// hold r.mu.
func (r *RingBuffer[T]) oldestLocked() int {
	return (r.head - r.count + r.cap) % r.cap
}
