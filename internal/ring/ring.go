// Package ring provides a fixed-capacity, drop-oldest buffer used to hold
// measurement series in memory. Continuous measurement loops append from a
// background goroutine while UI callbacks snapshot the series, so all methods
// are safe for concurrent use.
package ring

import "sync"

// Buffer is a bounded FIFO buffer. When full, appending drops the oldest
// element. The zero value is not usable; use New.
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
	size  int
}

// New creates a Buffer with the given capacity. Capacity must be positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Append adds an item to the tail of the buffer, dropping the oldest item
// when the buffer is at capacity. It reports whether an item was dropped.
func (b *Buffer[T]) Append(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < len(b.items) {
		b.items[(b.head+b.size)%len(b.items)] = item
		b.size++
		return false
	}

	// Full: overwrite the head slot and advance.
	b.items[b.head] = item
	b.head = (b.head + 1) % len(b.items)

	return true
}

// Snapshot returns a copy of the buffered items in insertion order.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}

	return out
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Reset discards all buffered items while keeping the capacity.
func (b *Buffer[T]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head = 0
	b.size = 0
}
