package freelist

import (
	"sync"
	"sync/atomic"

	"github.com/scidata/corelib"
)

// Caps tracks the per-list and global byte budgets that drive garbage
// collection for a free-list class (§4.7): once the bytes parked in a
// single list, or across the whole class, exceed their cap, the next free()
// triggers a collection pass. Pass corelib.NoCap for either field to
// disable that particular cap.
type Caps struct {
	perList uint64
	global  uint64
	freed   uint64 // atomic: bytes currently parked class-wide
}

// NewCaps creates a cap set shared by every head registered against the
// same Registry.
func NewCaps(perList, global uint64) *Caps {
	return &Caps{perList: perList, global: global}
}

func (c *Caps) addFreed(n uint64) {
	if n == 0 {
		return
	}
	atomic.AddUint64(&c.freed, n)
}

func (c *Caps) subFreed(n uint64) {
	if n == 0 {
		return
	}
	atomic.AddUint64(&c.freed, ^(n - 1))
}

func (c *Caps) globalExceeded() bool {
	if c.global == corelib.NoCap {
		return false
	}
	return atomic.LoadUint64(&c.freed) > c.global
}

func (c *Caps) perListExceeded(listBytes uint64) bool {
	return c.perList != corelib.NoCap && listBytes > c.perList
}

// gcable is implemented by every class's head type so the class-wide
// Registry can run a GC pass without knowing the concrete element type it
// recycles.
type gcable interface {
	gcList()
	onListBytes() uint64
}

// Registry is the list-of-heads bookkeeping shared by all four free-list
// classes (§4.7). Its own mutex is always acquired and released before
// touching any individual head's mutex, and is never held while a head's
// own GC pass runs -- the strict ordering that keeps GC from deadlocking
// against concurrent alloc/free traffic on other heads in the class.
type Registry struct {
	mu    sync.Mutex
	heads []gcable
	caps  *Caps
}

// NewRegistry creates a registry for one free-list class, bound to caps.
func NewRegistry(caps *Caps) *Registry {
	return &Registry{caps: caps}
}

func (r *Registry) register(h gcable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heads = append(r.heads, h)
}

func (r *Registry) unregister(h gcable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.heads {
		if x == h {
			r.heads = append(r.heads[:i], r.heads[i+1:]...)
			return
		}
	}
}

// GC runs an unconditional collection pass across every head in the class.
func (r *Registry) GC() {
	r.mu.Lock()
	snapshot := make([]gcable, len(r.heads))
	copy(snapshot, r.heads)
	r.mu.Unlock()

	for _, h := range snapshot {
		h.gcList()
	}
}

// maybeCollect runs a GC pass only if the class's global cap has been
// crossed by the bytes currently parked across its heads.
func (r *Registry) maybeCollect() {
	if r.caps.globalExceeded() {
		r.GC()
	}
}

// TotalParkedBytes sums onListBytes() across every head in the class.
func (r *Registry) TotalParkedBytes() uint64 {
	r.mu.Lock()
	snapshot := make([]gcable, len(r.heads))
	copy(snapshot, r.heads)
	r.mu.Unlock()

	var total uint64
	for _, h := range snapshot {
		total += h.onListBytes()
	}
	return total
}
