package corelib

import (
	"sync"

	"github.com/petermattis/goid"
)

// ExLock is the recursive exclusive lock of §4.1: an owner thread, a
// recursion depth, and a condition variable that waiters block on. The
// owning thread may re-acquire it without blocking; every Acquire must be
// matched by a Release.
type ExLock struct {
	mu     sync.Mutex
	cv     *sync.Cond
	owner  int64
	depth  int64
	cancel cancelState
}

// NewExLock constructs an idle ExLock.
func NewExLock() *ExLock {
	l := &ExLock{}
	l.cv = sync.NewCond(&l.mu)
	return l
}

// Acquire blocks until the calling goroutine owns the lock, incrementing
// its recursion depth. A thread that already owns the lock never blocks.
func (l *ExLock) Acquire() error {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth > 0 && l.owner == gid {
		l.depth++
		return nil
	}
	for l.depth > 0 {
		l.cv.Wait()
	}
	l.owner = gid
	l.depth = 1
	l.cancel.save()
	return nil
}

// AcquireN calls Acquire n times, giving the caller n nested holds.
func (l *ExLock) AcquireN(n int) error {
	for i := 0; i < n; i++ {
		if err := l.Acquire(); err != nil {
			return err
		}
	}
	return nil
}

// TryAcquire never blocks. It reports whether the lock was obtained (either
// freshly, or as a recursive hold by the current owner).
func (l *ExLock) TryAcquire() (acquired bool) {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth == 0 {
		l.owner = gid
		l.depth = 1
		l.cancel.save()
		return true
	}
	if l.owner == gid {
		l.depth++
		return true
	}
	return false
}

// Release decrements the recursion depth by one. When it reaches zero the
// lock becomes idle and a single waiter (if any) is woken. Releasing a lock
// the calling thread does not own is a programming error (§7
// ProgrammerError) and is reported rather than panicking, so callers in
// non-development builds can decide how to react.
func (l *ExLock) Release() error {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth == 0 || l.owner != gid {
		return NewError(ErrProgrammer)
	}
	l.depth--
	if l.depth == 0 {
		l.owner = 0
		l.cancel.restore()
		l.cv.Signal()
	}
	return nil
}

// ReleaseAll releases every recursive hold the calling thread holds in one
// call and reports how many were released, matching the batched
// release_n(&prev_count) operation of §4.1 and testable property #1.
func (l *ExLock) ReleaseAll() (prevCount int64, err error) {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth == 0 || l.owner != gid {
		return 0, NewError(ErrProgrammer)
	}
	prevCount = l.depth
	l.depth = 0
	l.owner = 0
	l.cancel.restore()
	l.cv.Signal()
	return prevCount, nil
}

// Depth reports the calling thread's current recursion depth, or zero if it
// is not the owner.
func (l *ExLock) Depth() int64 {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth > 0 && l.owner == gid {
		return l.depth
	}
	return 0
}
