package freelist

import "github.com/scidata/corelib"

// RegularHead recycles fixed-size values of type T (§4.7 "Regular"): free()
// pushes a value onto a LIFO free list, alloc() pops one, and the list is
// collected -- its backing array discarded -- once its own parked bytes, or
// the class's global parked bytes, cross their cap.
//
// Go's allocator exposes no observable allocation failure, so unlike the
// scheme this recycles, Alloc never needs to retry a GC pass to make room
// for a fresh allocation: GC here exists purely to bound how much is
// parked, not to recover from an out-of-memory condition.
type RegularHead[T any] struct {
	mu       corelib.DlfttMutex
	free     []T
	elemSize uint64
	bytes    uint64
	caps     *Caps
	reg      *Registry
}

// NewRegularHead creates a head whose GC accounting is shared with every
// other head registered against reg. elemSize is the size, in bytes, of one
// T, used purely for cap accounting.
func NewRegularHead[T any](reg *Registry, caps *Caps, elemSize uint64) *RegularHead[T] {
	h := &RegularHead[T]{elemSize: elemSize, caps: caps, reg: reg}
	reg.register(h)
	return h
}

// Alloc returns a recycled T, or the zero value if none is parked.
func (h *RegularHead[T]) Alloc() T {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)

	n := len(h.free)
	if n == 0 {
		var zero T
		return zero
	}
	v := h.free[n-1]
	h.free = h.free[:n-1]
	h.bytes -= h.elemSize
	h.caps.subFreed(h.elemSize)
	return v
}

// Free parks v for reuse, then triggers a GC pass if this list's or the
// class's cap has been crossed.
func (h *RegularHead[T]) Free(v T) {
	tok := h.mu.Acquire()
	h.free = append(h.free, v)
	h.bytes += h.elemSize
	exceeded := h.caps.perListExceeded(h.bytes)
	h.mu.Release(tok)

	h.caps.addFreed(h.elemSize)
	if exceeded {
		h.gcList()
	} else {
		h.reg.maybeCollect()
	}
}

// gcList discards the entire parked free list.
func (h *RegularHead[T]) gcList() {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	h.caps.subFreed(h.bytes)
	h.free = nil
	h.bytes = 0
}

func (h *RegularHead[T]) onListBytes() uint64 {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	return h.bytes
}

// Terminate discards this head's parked values and removes it from its
// class registry; call when the head itself is being torn down.
func (h *RegularHead[T]) Terminate() {
	h.gcList()
	h.reg.unregister(h)
}
