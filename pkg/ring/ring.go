// SPDX-License-Identifier: MIT
/*
Package ring implements a lock-free single-producer single-consumer ring
buffer for bridging a real-time audio callback with a slower consumer.

The producer side (TryPush, PushOverwrite) and the consumer side (TryPop,
Peek, Discard, Clear) must each be driven by exactly one goroutine. Within
that contract every operation is wait-free: no locks, no spinning, no
allocations after construction. FIFO order between the two sides is the only
ordering guarantee; this is NOT a general MPMC queue.

Synchronization uses two monotonically increasing cursors. Occupancy is
write-read, which stays correct across uint64 wraparound. A slot write is
published by the subsequent cursor store, so the opposite side never observes
a slot it is not allowed to touch.
*/
package ring

import (
	"sync/atomic"

	"audiovis/pkg/bitint"
)

// Buffer is a fixed-capacity SPSC ring buffer. The element type should be a
// plain copyable value (float32 samples, typically); slots are reused without
// any per-element cleanup.
type Buffer[T any] struct {
	buf  []T
	mask uint64

	// The cursors live on separate cache lines so the producer and consumer
	// cores do not invalidate each other's line on every push/pop.
	_        [64]byte
	writePos atomic.Uint64
	_        [56]byte
	readPos  atomic.Uint64
	_        [56]byte
}

// New constructs a buffer holding at least minCapacity elements. The actual
// capacity is rounded up to the next power of two so slot indexing reduces to
// a mask.
func New[T any](minCapacity int) *Buffer[T] {
	capacity := bitint.NextPowerOfTwo(minCapacity)
	return &Buffer[T]{
		buf:  make([]T, capacity),
		mask: uint64(capacity - 1),
	}
}

// Cap returns the buffer capacity (always a power of two).
func (b *Buffer[T]) Cap() int { return len(b.buf) }

// Len returns the number of elements available for reading.
// Safe to call from either side.
func (b *Buffer[T]) Len() int {
	w := b.writePos.Load()
	r := b.readPos.Load()
	return int(w - r)
}

// Free returns the remaining write space.
func (b *Buffer[T]) Free() int { return b.Cap() - b.Len() }

// Empty reports whether no unread elements remain.
func (b *Buffer[T]) Empty() bool { return b.Len() == 0 }

// Full reports whether the buffer is at capacity.
func (b *Buffer[T]) Full() bool { return b.Len() == b.Cap() }

// ----------------------------------------------------------------------------
// Producer side
// ----------------------------------------------------------------------------

// TryPush writes a single element. Returns false if the buffer is full.
func (b *Buffer[T]) TryPush(v T) bool {
	w := b.writePos.Load()
	r := b.readPos.Load()
	if w-r >= uint64(len(b.buf)) {
		return false
	}
	b.buf[w&b.mask] = v
	b.writePos.Store(w + 1)
	return true
}

// TryPushBatch writes as many elements of vals as fit, in order, and returns
// the count written. A partial write is exactly the leading prefix of vals.
func (b *Buffer[T]) TryPushBatch(vals []T) int {
	w := b.writePos.Load()
	r := b.readPos.Load()
	free := uint64(len(b.buf)) - (w - r)
	n := uint64(len(vals))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	start := w & b.mask
	first := copy(b.buf[start:], vals[:n])
	copy(b.buf, vals[first:n])

	b.writePos.Store(w + n)
	return int(n)
}

// PushOverwrite writes a single element unconditionally. If the buffer was
// full, the oldest unread element is dropped by advancing the read cursor, so
// a sustained overflow leaves the most-recent-capacity window intact. Because
// it moves the read cursor from the producer side, mixing PushOverwrite with
// a concurrently popping consumer trades strict FIFO accounting for
// never-blocking writes; that is the intended policy.
func (b *Buffer[T]) PushOverwrite(v T) {
	w := b.writePos.Load()
	b.buf[w&b.mask] = v
	b.writePos.Store(w + 1)

	r := b.readPos.Load()
	if w+1-r > uint64(len(b.buf)) {
		b.readPos.Store(w + 1 - uint64(len(b.buf)))
	}
}

// ----------------------------------------------------------------------------
// Consumer side
// ----------------------------------------------------------------------------

// TryPop reads a single element. The second return is false if the buffer
// was empty.
func (b *Buffer[T]) TryPop() (T, bool) {
	r := b.readPos.Load()
	w := b.writePos.Load()
	if r >= w {
		var zero T
		return zero, false
	}
	v := b.buf[r&b.mask]
	b.readPos.Store(r + 1)
	return v, true
}

// TryPopBatch reads up to len(out) elements into out and returns the count.
func (b *Buffer[T]) TryPopBatch(out []T) int {
	n := b.copyOut(out)
	if n > 0 {
		b.readPos.Store(b.readPos.Load() + uint64(n))
	}
	return n
}

// Peek copies up to len(out) elements into out without consuming them.
// Repeated calls observe the same data.
func (b *Buffer[T]) Peek(out []T) int {
	return b.copyOut(out)
}

// Discard drops up to n unread elements and returns the number dropped.
// Used to skip stale samples without copying them anywhere.
func (b *Buffer[T]) Discard(n int) int {
	r := b.readPos.Load()
	w := b.writePos.Load()
	avail := w - r
	drop := uint64(n)
	if drop > avail {
		drop = avail
	}
	b.readPos.Store(r + drop)
	return int(drop)
}

// Clear discards all data pending at the instant of the call.
func (b *Buffer[T]) Clear() {
	b.readPos.Store(b.writePos.Load())
}

// copyOut copies up to len(out) readable elements into out without moving
// the read cursor.
func (b *Buffer[T]) copyOut(out []T) int {
	r := b.readPos.Load()
	w := b.writePos.Load()
	avail := w - r
	n := uint64(len(out))
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	start := r & b.mask
	end := start + n
	if end <= uint64(len(b.buf)) {
		copy(out, b.buf[start:end])
	} else {
		first := copy(out, b.buf[start:])
		copy(out[first:], b.buf[:n-uint64(first)])
	}
	return int(n)
}
