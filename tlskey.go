package corelib

import (
	"sync"

	"github.com/petermattis/goid"
)

// TLSKey is a process-wide keyed slot holding at most one value per calling
// goroutine, modeling the library's thread-local storage key (§4.6, §9
// "Reader recursion storage"). Multiple independent keys may coexist, and a
// goroutine may hold a value in several of them simultaneously: RwLock
// allocates one per lock instance for its recursive-reader count rather
// than sharing a single global slot.
//
// Go goroutines are not OS threads and carry no destructor hook analogous
// to pthread_key_create's: callers that want prompt cleanup call Clear (or
// DetachCurrentThread for the registry's own key) before the goroutine
// exits. An undetached entry simply outlives its goroutine until the
// process ends, which is the same degenerate behavior the source library
// exhibits if a destructor is skipped.
type TLSKey struct {
	mu     sync.Mutex
	values map[int64]any
}

// NewTLSKey allocates an empty key.
func NewTLSKey() *TLSKey {
	return &TLSKey{values: make(map[int64]any)}
}

// Get returns the value registered for the calling goroutine, if any.
func (k *TLSKey) Get() (any, bool) {
	gid := goid.Get()
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.values[gid]
	return v, ok
}

// Set registers v for the calling goroutine, replacing any prior value.
func (k *TLSKey) Set(v any) {
	gid := goid.Get()
	k.mu.Lock()
	defer k.mu.Unlock()
	k.values[gid] = v
}

// Clear removes the calling goroutine's value, if any.
func (k *TLSKey) Clear() {
	gid := goid.Get()
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.values, gid)
}
