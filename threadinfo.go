package corelib

import (
	"sync"
	"sync/atomic"
)

// ThreadInfo is the per-thread record described in §3 and §4.6: a
// monotonic id, an API-context stack pointer, an error-stack slot and a
// DLFTT counter. One record is lazily created for each goroutine that
// enters the library and is recycled through registryFreeList when the
// goroutine detaches.
type ThreadInfo struct {
	id       uint64
	dlftt    int32
	apiCtx   any
	errStack any
}

// ID returns the thread's monotonic, never-reused identifier.
func (t *ThreadInfo) ID() uint64 { return t.id }

// DLFTT returns the current "disable locking for this thread" depth.
func (t *ThreadInfo) DLFTT() int32 { return atomic.LoadInt32(&t.dlftt) }

// IncDLFTT increments the DLFTT depth and returns the new value. Used by
// UserCallbackPrepare before invoking a user callback under the API lock.
func (t *ThreadInfo) IncDLFTT() int32 { return atomic.AddInt32(&t.dlftt, 1) }

// DecDLFTT decrements the DLFTT depth and returns the new value. It is a
// programmer error to call this when DLFTT is already zero; that case
// clamps at zero rather than going negative.
func (t *ThreadInfo) DecDLFTT() int32 {
	for {
		cur := atomic.LoadInt32(&t.dlftt)
		if cur <= 0 {
			return 0
		}
		if atomic.CompareAndSwapInt32(&t.dlftt, cur, cur-1) {
			return cur - 1
		}
	}
}

// APICtx returns the opaque API-context stack pointer for this thread.
func (t *ThreadInfo) APICtx() any { return t.apiCtx }

// SetAPICtx sets the opaque API-context stack pointer for this thread.
func (t *ThreadInfo) SetAPICtx(v any) { t.apiCtx = v }

// ErrStack returns the opaque error-stack handle for this thread.
func (t *ThreadInfo) ErrStack() any { return t.errStack }

// SetErrStack sets the opaque error-stack handle for this thread.
func (t *ThreadInfo) SetErrStack(v any) { t.errStack = v }

var (
	threadInfoTLS     = NewTLSKey()
	registryMu        sync.Mutex
	registryFreeList  []*ThreadInfo
	registryNextID    uint64
)

// CurrentThreadInfo returns the calling goroutine's ThreadInfo, creating one
// (from the free list, or freshly) on first use.
func CurrentThreadInfo() *ThreadInfo {
	if v, ok := threadInfoTLS.Get(); ok {
		return v.(*ThreadInfo)
	}
	ti := acquireThreadInfo()
	threadInfoTLS.Set(ti)
	return ti
}

// ThreadID is a thin accessor returning the calling goroutine's id,
// equivalent to the library's H5TS_thread_id entry point.
func ThreadID() uint64 { return CurrentThreadInfo().id }

// acquireThreadInfo pops a recycled record (if any) or allocates a new one,
// and always assigns it a fresh id: ids are never reused across the
// lifetime of two different logical threads even when their backing record
// is recycled (testable property #2).
func acquireThreadInfo() *ThreadInfo {
	registryMu.Lock()
	defer registryMu.Unlock()

	registryNextID++
	id := registryNextID

	if n := len(registryFreeList); n > 0 {
		ti := registryFreeList[n-1]
		registryFreeList = registryFreeList[:n-1]
		ti.id = id
		ti.dlftt = 0
		ti.apiCtx = nil
		ti.errStack = nil
		return ti
	}
	return &ThreadInfo{id: id}
}

// DetachCurrentThread releases the calling goroutine's ThreadInfo back to
// the registry's free list and clears its TLS slot. Call this before a
// goroutine that touched the library exits; it is the idiomatic-Go stand-in
// for the pthread key destructor that runs automatically in the source
// library (see TLSKey's doc comment).
func DetachCurrentThread() {
	v, ok := threadInfoTLS.Get()
	if !ok {
		return
	}
	threadInfoTLS.Clear()
	ti := v.(*ThreadInfo)

	registryMu.Lock()
	registryFreeList = append(registryFreeList, ti)
	registryMu.Unlock()
}
