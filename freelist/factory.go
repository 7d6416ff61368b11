package freelist

import (
	"container/list"
	"sync"
	"unsafe"

	"github.com/scidata/corelib"
	"github.com/scidata/corelib/internal/fastmap"
)

// FactoryHandle is one independently created, independently destroyable
// fixed-size free list (§4.7 "Factory") -- e.g. the node pool belonging to
// one B-tree instance, kept separate from every other instance's pool, but
// still subject to its class's shared global byte cap.
type FactoryHandle struct {
	id       uint32
	elemSize uint64
	mu       corelib.DlfttMutex
	free     [][]byte // parked raw elements, elemSize bytes each
	bytes    uint64
	elem     *list.Element // this handle's node in the factory's global list
	factory  *FactoryHead
}

// ID returns the id this handle was assigned at creation; ids are never
// reused within a FactoryHead's lifetime.
func (h *FactoryHandle) ID() uint32 { return h.id }

// Alloc returns a recycled raw element, or nil if none is parked.
func (h *FactoryHandle) Alloc() []byte {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	n := len(h.free)
	if n == 0 {
		return nil
	}
	v := h.free[n-1]
	h.free = h.free[:n-1]
	h.bytes -= h.elemSize
	h.factory.caps.subFreed(h.elemSize)
	return v
}

// Free parks v for reuse under this handle.
func (h *FactoryHandle) Free(v []byte) {
	tok := h.mu.Acquire()
	h.free = append(h.free, v)
	h.bytes += h.elemSize
	exceeded := h.factory.caps.perListExceeded(h.bytes)
	h.mu.Release(tok)

	h.factory.caps.addFreed(h.elemSize)
	if exceeded {
		h.gcList()
	} else {
		h.factory.reg.maybeCollect()
	}
}

func (h *FactoryHandle) gcList() {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	h.factory.caps.subFreed(h.bytes)
	h.free = nil
	h.bytes = 0
}

func (h *FactoryHandle) onListBytes() uint64 {
	tok := h.mu.Acquire()
	defer h.mu.Release(tok)
	return h.bytes
}

// FactoryHead is the class-wide manager for an open-ended number of
// independently destroyable FactoryHandles (§4.7 "Factory"), each
// identified by a handle id assigned at creation and looked up in O(1) via
// a fibonacci-hashed table, and each chained into a single global
// doubly-linked list so the whole class can be walked or torn down at once.
type FactoryHead struct {
	mu      sync.Mutex // protects handles, order and nextID below
	handles fastmap.Uint32Map
	order   *list.List // of *FactoryHandle, creation order
	nextID  uint32
	caps    *Caps
	reg     *Registry
}

// NewFactoryHead creates an empty factory class bound to caps.
func NewFactoryHead(caps *Caps) *FactoryHead {
	return &FactoryHead{
		order: list.New(),
		caps:  caps,
		reg:   NewRegistry(caps),
	}
}

// Create allocates a new independently destroyable handle for elements of
// elemSize bytes and returns it.
func (f *FactoryHead) Create(elemSize uint64) *FactoryHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	h := &FactoryHandle{id: f.nextID, elemSize: elemSize, factory: f}
	h.elem = f.order.PushBack(h)
	f.handles.Set(h.id, unsafe.Pointer(h))
	f.reg.register(h)
	return h
}

// Lookup finds a handle by id in O(1).
func (f *FactoryHead) Lookup(id uint32) (*FactoryHandle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.handles.Get(id)
	if !ok {
		return nil, false
	}
	return (*FactoryHandle)(p), true
}

// Destroy discards a handle's parked elements and removes it from the
// class entirely; its id is never reused.
func (f *FactoryHead) Destroy(id uint32) {
	f.mu.Lock()
	p, ok := f.handles.Get(id)
	if !ok {
		f.mu.Unlock()
		return
	}
	h := (*FactoryHandle)(p)
	f.handles.Delete(id)
	f.order.Remove(h.elem)
	f.mu.Unlock()

	h.gcList()
	f.reg.unregister(h)
}

// Len returns the number of live handles in the class.
func (f *FactoryHead) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles.Len()
}

// GC runs a collection pass across every handle in the class.
func (f *FactoryHead) GC() {
	f.reg.GC()
}
