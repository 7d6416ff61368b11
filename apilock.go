//go:build !apilock_singlemutex

package corelib

// This file implements Variant B of §4.3: the rw-lock + DLFTT API lock,
// chosen as the canonical model per the Open Question in §9 ("a rewrite
// should pick the rw-lock+DLFTT variant as the canonical model and treat
// the single-mutex variant as a compile-time degeneration"). Build with
// -tags apilock_singlemutex to get Variant A instead (apilock_singlemutex.go).
//
// Library entry points acquire a read hold for read-only operations and a
// write hold for mutating ones via apiLock directly; AcquireAPILock and
// ReleaseAPILock expose the batched, non-blocking developer-visible surface
// of §6, implemented over the write side of apiLock.

var (
	apiLock         = NewRwLock()
	apiAttemptCount AtomicCounter
)

// AcquireAPILock never blocks. On success it reserves n nested write holds
// for the calling thread and sets *acquired to true; on contention it takes
// nothing and sets *acquired to false.
func AcquireAPILock(n int, acquired *bool) error {
	apiAttemptCount.Inc()
	if n <= 0 {
		*acquired = false
		return NewError(ErrInvalid)
	}
	if !apiLock.TryLock() {
		*acquired = false
		return nil
	}
	for i := 1; i < n; i++ {
		apiLock.Lock() // recursive (same thread): never blocks
	}
	*acquired = true
	return nil
}

// ReleaseAPILock releases every write hold the calling thread holds and
// reports how many were released in *prevCount, if non-nil.
func ReleaseAPILock(prevCount *int64) error {
	var count int64
	for apiLock.WriterDepthForCurrent() > 0 {
		if err := apiLock.Unlock(); err != nil {
			return err
		}
		count++
	}
	if prevCount != nil {
		*prevCount = count
	}
	return nil
}

// GetAPILockAttemptCount reads the diagnostic entry-attempt counter.
func GetAPILockAttemptCount() uint64 { return apiAttemptCount.Load() }

// UserCallbackPrepare increments the calling thread's DLFTT counter before
// the library invokes a user-supplied callback, permitting that callback to
// re-enter the library without self-deadlocking on DLFTT-aware mutexes.
func UserCallbackPrepare() { CurrentThreadInfo().IncDLFTT() }

// UserCallbackRestore decrements the calling thread's DLFTT counter after
// a user-supplied callback returns.
func UserCallbackRestore() { CurrentThreadInfo().DecDLFTT() }

// EnterRead acquires the API lock for a read-only entry point.
func EnterRead() error { apiLock.RLock(); return nil }

// ExitRead releases a read-only entry point's hold.
func ExitRead() error { return apiLock.RUnlock() }

// EnterWrite acquires the API lock for a mutating entry point.
func EnterWrite() error { apiLock.Lock(); return nil }

// ExitWrite releases a mutating entry point's hold.
func ExitWrite() error { return apiLock.Unlock() }
