package corelib

import (
	"sync"

	"github.com/petermattis/goid"
)

// RwLockStats holds the optional statistics described in §4.2. They are
// only consistent when sampled while RwLock's internal mutex is held, which
// Stats() does.
type RwLockStats struct {
	Granted        uint64
	Delayed        uint64
	MaxReaders     int
	MaxWriterDepth int64
}

// RwLock is the recursive reader/writer lock of §4.2. It allows recursive
// reads and recursive writes from the same goroutine, a writer may demote
// into a recursive read while holding the write lock, and it is
// writer-preferring: once a writer is waiting, new non-recursive readers
// queue behind it to avoid writer starvation (§5, §8 property 8).
type RwLock struct {
	mu             sync.Mutex
	writersCV      *sync.Cond
	readersCV      *sync.Cond
	writerGID      int64
	writerDepth    int64
	waitingWriters int
	activeReaders  int
	readerDepth    *TLSKey // lazily-registered per-goroutine read recursion count

	stats RwLockStats
}

// NewRwLock constructs an idle RwLock.
func NewRwLock() *RwLock {
	l := &RwLock{readerDepth: NewTLSKey()}
	l.writersCV = sync.NewCond(&l.mu)
	l.readersCV = sync.NewCond(&l.mu)
	return l
}

func (l *RwLock) currentReaderDepth() int {
	v, ok := l.readerDepth.Get()
	if !ok {
		return 0
	}
	return v.(int)
}

// adjustReaderDepth mutates the calling goroutine's recursion count by delta
// and returns the new depth, or -1 if delta would make it negative (a
// release with no matching acquire).
func (l *RwLock) adjustReaderDepth(delta int) int {
	d := l.currentReaderDepth() + delta
	if d < 0 {
		return -1
	}
	if d == 0 {
		l.readerDepth.Clear()
		return 0
	}
	l.readerDepth.Set(d)
	return d
}

// RLock acquires a shared (read) hold, blocking only if the calling thread
// does not already hold a read or write lock and a writer is either active
// or waiting.
func (l *RwLock) RLock() {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writerDepth > 0 && l.writerGID == gid {
		// Promotion: the writer takes a recursive read. Must be released
		// symmetrically via RUnlock; does not affect activeReaders/mode.
		l.adjustReaderDepth(1)
		l.stats.Granted++
		return
	}

	alreadyReading := l.currentReaderDepth() > 0
	for !alreadyReading && (l.writerDepth > 0 || l.waitingWriters > 0) {
		l.stats.Delayed++
		l.readersCV.Wait()
	}

	l.activeReaders++
	l.adjustReaderDepth(1)
	l.stats.Granted++
	if l.activeReaders > l.stats.MaxReaders {
		l.stats.MaxReaders = l.activeReaders
	}
}

// RUnlock releases one shared hold. Releasing a read the calling thread
// does not hold is a programming error.
func (l *RwLock) RUnlock() error {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writerDepth > 0 && l.writerGID == gid {
		if l.adjustReaderDepth(-1) < 0 {
			return NewError(ErrProgrammer)
		}
		return nil
	}

	if l.adjustReaderDepth(-1) < 0 {
		return NewError(ErrProgrammer)
	}
	l.activeReaders--
	if l.activeReaders == 0 {
		if l.waitingWriters > 0 {
			l.writersCV.Signal()
		} else {
			l.readersCV.Broadcast()
		}
	}
	return nil
}

// Lock acquires an exclusive (write) hold, recursively if the calling
// thread already owns it. Otherwise it registers as a waiting writer (which
// blocks new readers) and waits for the lock to become idle.
func (l *RwLock) Lock() {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writerDepth > 0 && l.writerGID == gid {
		l.writerDepth++
		l.stats.Granted++
		if l.writerDepth > l.stats.MaxWriterDepth {
			l.stats.MaxWriterDepth = l.writerDepth
		}
		return
	}

	l.waitingWriters++
	for l.writerDepth > 0 || l.activeReaders > 0 {
		l.stats.Delayed++
		l.writersCV.Wait()
	}
	l.waitingWriters--
	l.writerGID = gid
	l.writerDepth = 1
	l.stats.Granted++
	if l.writerDepth > l.stats.MaxWriterDepth {
		l.stats.MaxWriterDepth = l.writerDepth
	}
}

// TryLock never blocks. It reports whether the write lock was obtained.
func (l *RwLock) TryLock() bool {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writerDepth > 0 && l.writerGID == gid {
		l.writerDepth++
		l.stats.Granted++
		return true
	}
	if l.writerDepth > 0 || l.activeReaders > 0 {
		return false
	}
	l.writerGID = gid
	l.writerDepth = 1
	l.stats.Granted++
	return true
}

// Unlock releases one exclusive hold. When the recursion depth reaches
// zero, a waiting writer is preferred; absent one, all waiting readers are
// released.
func (l *RwLock) Unlock() error {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writerDepth == 0 || l.writerGID != gid {
		return NewError(ErrProgrammer)
	}
	l.writerDepth--
	if l.writerDepth == 0 {
		l.writerGID = 0
		if l.waitingWriters > 0 {
			l.writersCV.Signal()
		} else {
			l.readersCV.Broadcast()
		}
	}
	return nil
}

// WriterDepthForCurrent reports the calling thread's write recursion depth,
// or zero if it does not hold the write lock. Used by the API lock to
// implement batched release.
func (l *RwLock) WriterDepthForCurrent() int64 {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writerDepth > 0 && l.writerGID == gid {
		return l.writerDepth
	}
	return 0
}

// Stats returns a snapshot of the optional lock statistics.
func (l *RwLock) Stats() RwLockStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
