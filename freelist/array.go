package freelist

import "github.com/scidata/corelib"

// ArrayBlock is one free parked array. Count is the number of elements the
// last owner logically used, which may be less than len(Data)'s capacity --
// the array class recycles by capacity, not by logical length.
type ArrayBlock[T any] struct {
	Count uint32
	Data  []T
}

// ArrayHead recycles variable-length slices of T, bucketed by capacity so
// that "is there a free array of at least N elements" (§4.7 "Array") is a
// scan of one bitmap bit per candidate capacity instead of a sublist walk.
type ArrayHead[T any] struct {
	mu       corelib.DlfttMutex
	buckets  [][]*ArrayBlock[T] // buckets[c] holds arrays of capacity c
	nonEmpty *Bitmap
	elemSize uint64
	bytes    uint64
	caps     *Caps
	reg      *Registry
}

// NewArrayHead creates a head covering capacities [0, maxCap], sharing GC
// accounting with every other head registered against reg.
func NewArrayHead[T any](reg *Registry, caps *Caps, elemSize uint64, maxCap uint32) *ArrayHead[T] {
	h := &ArrayHead[T]{
		buckets:  make([][]*ArrayBlock[T], maxCap+1),
		nonEmpty: NewBitmap(maxCap + 1),
		elemSize: elemSize,
		caps:     caps,
		reg:      reg,
	}
	reg.register(h)
	return h
}

// Alloc returns a recycled array with capacity >= n, or nil if none is
// parked -- the caller then makes a fresh one.
func (h *ArrayHead[T]) Alloc(n uint32) *ArrayBlock[T] {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)

	if int(n) >= len(h.buckets) {
		return nil
	}
	for c := n; int(c) < len(h.buckets); c++ {
		if !h.nonEmpty.Test(c) {
			continue
		}
		bucket := h.buckets[c]
		m := len(bucket)
		blk := bucket[m-1]
		h.buckets[c] = bucket[:m-1]
		if len(h.buckets[c]) == 0 {
			h.nonEmpty.Unmark(c)
		}
		freed := uint64(c) * h.elemSize
		h.bytes -= freed
		h.caps.subFreed(freed)
		return blk
	}
	return nil
}

// Free parks blk for reuse under its backing capacity, then triggers a GC
// pass if either cap has been crossed.
func (h *ArrayHead[T]) Free(blk *ArrayBlock[T]) {
	c := uint32(cap(blk.Data))
	tok := h.mu.Acquire()
	if int(c) >= len(h.buckets) {
		// Larger than this head was sized for; drop rather than grow the
		// bucket table unboundedly.
		h.mu.Release(tok)
		return
	}
	h.buckets[c] = append(h.buckets[c], blk)
	h.nonEmpty.Mark(c)
	added := uint64(c) * h.elemSize
	h.bytes += added
	exceeded := h.caps.perListExceeded(h.bytes)
	h.mu.Release(tok)

	h.caps.addFreed(added)
	if exceeded {
		h.gcList()
	} else {
		h.reg.maybeCollect()
	}
}

func (h *ArrayHead[T]) gcList() {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	h.caps.subFreed(h.bytes)
	for i := range h.buckets {
		h.buckets[i] = nil
	}
	h.nonEmpty.Reset()
	h.bytes = 0
}

func (h *ArrayHead[T]) onListBytes() uint64 {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	return h.bytes
}

// Terminate discards this head's parked values and removes it from its
// class registry.
func (h *ArrayHead[T]) Terminate() {
	h.gcList()
	h.reg.unregister(h)
}
