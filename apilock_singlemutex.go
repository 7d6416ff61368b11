//go:build apilock_singlemutex

package corelib

import "sync"

// This file implements Variant A of §4.3: a single recursive exclusive
// lock with a shared lock-count field, built on ExLock. It exists as the
// compile-time degeneration described in §9; the default build uses
// apilock.go (Variant B) instead.

var (
	apiEx           = NewExLock()
	apiLockCountMu  sync.Mutex
	apiLockCount    int64
	apiAttemptCount AtomicCounter
)

// AcquireAPILock never blocks. On success it reserves n nested holds for
// the calling thread and sets *acquired to true.
func AcquireAPILock(n int, acquired *bool) error {
	apiAttemptCount.Inc()
	if n <= 0 {
		*acquired = false
		return NewError(ErrInvalid)
	}
	if !apiEx.TryAcquire() {
		*acquired = false
		return nil
	}
	for i := 1; i < n; i++ {
		if err := apiEx.Acquire(); err != nil {
			return err
		}
	}
	apiLockCountMu.Lock()
	apiLockCount += int64(n)
	apiLockCountMu.Unlock()
	*acquired = true
	return nil
}

// ReleaseAPILock releases the calling thread's entire recursive stack and
// reports how many holds were released in *prevCount, if non-nil.
func ReleaseAPILock(prevCount *int64) error {
	count, err := apiEx.ReleaseAll()
	if err != nil {
		return err
	}
	apiLockCountMu.Lock()
	apiLockCount -= count
	apiLockCountMu.Unlock()
	if prevCount != nil {
		*prevCount = count
	}
	return nil
}

// GetAPILockAttemptCount reads the diagnostic entry-attempt counter.
func GetAPILockAttemptCount() uint64 { return apiAttemptCount.Load() }

// UserCallbackPrepare is a no-op in the single-mutex variant: there is no
// DLFTT counter to maintain because this build never disables per-thread
// locking.
func UserCallbackPrepare() {}

// UserCallbackRestore is a no-op in the single-mutex variant.
func UserCallbackRestore() {}

// EnterRead and EnterWrite both map onto the single recursive lock in this
// variant; there is no distinct read path.
func EnterRead() error  { return apiEx.Acquire() }
func ExitRead() error   { return apiEx.Release() }
func EnterWrite() error { return apiEx.Acquire() }
func ExitWrite() error  { return apiEx.Release() }
