package freelist

import (
	"container/list"

	"github.com/scidata/corelib"
)

// Block is one free parked byte block, addressed by its own size.
type Block struct {
	Size uint64
	Data []byte
}

// blockSizeClass is one node of the head's MRU priority queue: every block
// parked at Size, oldest at the back.
type blockSizeClass struct {
	size  uint64
	elems *list.List // of *Block
}

// BlockHead recycles variable-size byte blocks keyed by exact size (§4.7
// "Block"). Size classes are kept in a priority queue ordered
// most-recently-used first, via the standard library's container/list: a
// class moves to the front on every Free into it and on every Alloc that
// leaves blocks behind. gcList does not use that order; it clears every
// size class at once. A size class is created the moment a block of an
// unseen size is freed, and removed the moment its sublist drains to empty
// -- whether by Alloc taking its last block or by gcList reclaiming it
// outright.
type BlockHead struct {
	mu      corelib.DlfttMutex
	classes map[uint64]*list.Element // size -> node in mru
	mru     *list.List               // of *blockSizeClass, MRU at the front
	bytes   uint64
	caps    *Caps
	reg     *Registry
}

// NewBlockHead creates a head sharing GC accounting with every other head
// registered against reg.
func NewBlockHead(reg *Registry, caps *Caps) *BlockHead {
	h := &BlockHead{
		classes: make(map[uint64]*list.Element),
		mru:     list.New(),
		caps:    caps,
		reg:     reg,
	}
	reg.register(h)
	return h
}

// Alloc returns a recycled block of exactly size bytes, or nil.
func (h *BlockHead) Alloc(size uint64) *Block {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)

	el, ok := h.classes[size]
	if !ok {
		return nil
	}
	sc := el.Value.(*blockSizeClass)
	front := sc.elems.Front()
	blk := front.Value.(*Block)
	sc.elems.Remove(front)
	h.bytes -= size
	h.caps.subFreed(size)

	if sc.elems.Len() == 0 {
		h.mru.Remove(el)
		delete(h.classes, size)
	} else {
		h.mru.MoveToFront(el)
	}
	return blk
}

// Free parks blk under its own size, marks that size class most recently
// used, then triggers a GC pass if either cap has been crossed.
func (h *BlockHead) Free(blk *Block) {
	size := blk.Size
	tok := h.mu.Acquire()

	var sc *blockSizeClass
	if el, ok := h.classes[size]; ok {
		sc = el.Value.(*blockSizeClass)
		h.mru.MoveToFront(el)
	} else {
		sc = &blockSizeClass{size: size, elems: list.New()}
		h.classes[size] = h.mru.PushFront(sc)
	}
	sc.elems.PushFront(blk)
	h.bytes += size
	exceeded := h.caps.perListExceeded(h.bytes)
	h.mu.Release(tok)

	h.caps.addFreed(size)
	if exceeded {
		h.gcList()
	} else {
		h.reg.maybeCollect()
	}
}

// gcList frees every block parked on this head, across every size class,
// and adjusts counters -- the same full-clear contract every other class's
// gcList honors.
func (h *BlockHead) gcList() {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)

	h.caps.subFreed(h.bytes)
	h.classes = make(map[uint64]*list.Element)
	h.mru = list.New()
	h.bytes = 0
}

func (h *BlockHead) onListBytes() uint64 {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	return h.bytes
}

// Terminate discards every size class and removes this head from its
// class registry.
func (h *BlockHead) Terminate() {
	tok := h.mu.Acquire()
	h.caps.subFreed(h.bytes)
	h.classes = make(map[uint64]*list.Element)
	h.mru = list.New()
	h.bytes = 0
	h.mu.Release(tok)
	h.reg.unregister(h)
}
