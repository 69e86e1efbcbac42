// Package ring provides a bounded FIFO buffer used for rolling telemetry
// windows and operator logs.
package ring

// Buffer is a fixed-capacity FIFO. Pushing onto a full buffer evicts the
// oldest element. Buffer is not safe for concurrent use; callers guard it.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
}

// New creates a buffer holding at most capacity elements.
// A capacity below 1 is raised to 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v, evicting the oldest element when full.
// It reports whether an element was evicted.
func (b *Buffer[T]) Push(v T) bool {
	if b.size < len(b.items) {
		b.items[(b.head+b.size)%len(b.items)] = v
		b.size++
		return false
	}
	b.items[b.head] = v
	b.head = (b.head + 1) % len(b.items)
	return true
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the maximum number of elements.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Slice returns a copy of the contents ordered oldest first.
// The result is never nil.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Last returns the newest element.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.size == 0 {
		return zero, false
	}
	return b.items[(b.head+b.size-1)%len(b.items)], true
}

// Reset drops all elements without shrinking capacity.
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head = 0
	b.size = 0
}
