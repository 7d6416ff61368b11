// Package posixfile implements the POSIX-like file I/O shim (§4.8): a small,
// portable surface over positional reads/writes, advisory locking, identity
// comparison and end-of-file/end-of-allocation bookkeeping, with one backend
// per OS (file_unix.go, file_windows.go) behind the same exported contract.
package posixfile

import (
	"errors"
	"os"
	"time"

	"github.com/scidata/corelib"
)

// MaxOffset is the largest offset this shim will accept; overflow checks
// against it are part of the wire contract so callers on 32-bit platforms
// and callers on 64-bit platforms observe the same error rather than one
// silently wrapping.
const MaxOffset = corelib.MaxOffset

// LockMode selects how File.Lock behaves.
type LockMode int

const (
	// LockShared takes an advisory shared (read) lock.
	LockShared LockMode = iota
	// LockExclusive takes an advisory exclusive (write) lock.
	LockExclusive
)

// Identity uniquely identifies the underlying storage object -- the
// (device, inode) pair on POSIX, the (volume serial, file index) pair on
// Windows -- so callers can detect that two paths or two descriptors refer
// to the same file without comparing paths textually.
type Identity struct {
	Device uint64
	Inode  uint64
}

// TimingInfo reports coarse stat-derived metadata for the underlying file,
// used by callers that need to detect whether a file changed out from
// under them.
type TimingInfo struct {
	ModTime  int64 // Unix nanoseconds
	Size     int64
	Identity Identity
}

// OpTiming is the optional elapsed-wall-clock accumulator every operation in
// this package accepts (§4.8: "every operation accepts an optional
// timing-info structure; when present, the operation records elapsed
// wall-clock around its syscall(s)"). A caller that doesn't care about
// timing passes nil; every exported method on File tolerates it.
type OpTiming struct {
	Elapsed time.Duration
}

func recordElapsed(t *OpTiming, start time.Time) {
	if t == nil {
		return
	}
	t.Elapsed += time.Since(start)
}

// File is the portable contract every backend implements. All offsets are
// validated against MaxOffset before the underlying syscall is issued.
type File struct {
	f             *os.File
	locksDisabled bool
	eof           int64 // tracked end-of-file, extended implicitly by writes
	eoa           int64 // tracked end-of-allocation, set by SetEOA/Truncate and raised by WriteAt to eof
}

// Open opens path with the given os.O_* flags and permission bits.
func Open(path string, flag int, perm os.FileMode, timing *OpTiming) (*File, error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, corelib.WrapError(corelib.ErrIO, err)
	}
	file := &File{f: f}
	if fi, serr := f.Stat(); serr == nil {
		file.eof = fi.Size()
		file.eoa = fi.Size()
	}
	return file, nil
}

// DisableLocks turns every subsequent Lock/Unlock on this handle into a
// no-op -- for callers that have already established mutual exclusion some
// other way (e.g. a single-process, single-writer deployment) and don't
// want the extra syscalls.
func (f *File) DisableLocks() { f.locksDisabled = true }

// Close closes the underlying descriptor.
func (f *File) Close(timing *OpTiming) error {
	start := time.Now()
	defer recordElapsed(timing, start)
	if err := f.f.Close(); err != nil {
		return corelib.WrapError(corelib.ErrIO, err)
	}
	return nil
}

// Fd returns the raw descriptor, for callers that need to hand it to
// another package (e.g. a memory-mapping layer).
func (f *File) Fd() uintptr { return f.f.Fd() }

// GetEOF returns the shim's tracked end-of-file: the logical length of
// valid content, extended implicitly by successful writes.
func (f *File) GetEOF(timing *OpTiming) int64 {
	start := time.Now()
	defer recordElapsed(timing, start)
	return f.eof
}

// SetEOF overrides the shim's tracked end-of-file directly, without
// touching the underlying file's physical size.
func (f *File) SetEOF(eof int64, timing *OpTiming) error {
	start := time.Now()
	defer recordElapsed(timing, start)
	if err := checkOffset(eof); err != nil {
		return err
	}
	f.eof = eof
	return nil
}

// GetEOA returns the shim's tracked end-of-allocation: the high-water mark
// of address space reserved for this file, set by SetEOA and Truncate and
// raised by WriteAt whenever a write extends eof past it.
func (f *File) GetEOA(timing *OpTiming) int64 {
	start := time.Now()
	defer recordElapsed(timing, start)
	return f.eoa
}

// SetEOA overrides the shim's tracked end-of-allocation directly.
func (f *File) SetEOA(eoa int64, timing *OpTiming) error {
	start := time.Now()
	defer recordElapsed(timing, start)
	if err := checkOffset(eoa); err != nil {
		return err
	}
	f.eoa = eoa
	return nil
}

// Cmp reports whether a and b refer to the same underlying storage object,
// per §4.8's identity rule: (device, inode) on POSIX, (volume serial, file
// index) on Windows. A nil file only compares equal to another nil file.
func Cmp(a, b *File, timing *OpTiming) (bool, error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	if a == nil || b == nil {
		return a == b, nil
	}
	if a == b {
		return true, nil
	}
	ia, err := a.Timing(nil)
	if err != nil {
		return false, err
	}
	ib, err := b.Timing(nil)
	if err != nil {
		return false, err
	}
	return ia.Identity == ib.Identity, nil
}

func checkOffset(off int64) error {
	if off < 0 || off > MaxOffset {
		return corelib.NewError(corelib.ErrOverflow)
	}
	return nil
}

// isRetryable reports whether err is the kind of transient OS error
// (EINTR, or a short read/write already folded into n) that the shim
// should retry internally rather than surface to the caller.
func isRetryable(err error) bool {
	return errors.Is(err, errEINTR)
}
