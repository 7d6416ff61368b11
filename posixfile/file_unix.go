//go:build unix

package posixfile

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/scidata/corelib"
)

// errEINTR lets isRetryable recognize the OS-specific "interrupted by a
// signal" condition without every caller importing syscall directly.
var errEINTR = unix.EINTR

// ReadAt reads len(buf) bytes starting at off, retrying internally on
// EINTR and on short reads. A read that runs off the end of the file zero-
// fills the remainder of buf rather than leaving stale bytes in it, and
// reports how many bytes were actually backed by the file via n.
func (f *File) ReadAt(buf []byte, off int64, timing *OpTiming) (n int, err error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	if err := checkOffset(off); err != nil {
		return 0, err
	}
	fd := int(f.f.Fd())
	for n < len(buf) {
		m, rerr := unix.Pread(fd, buf[n:], off+int64(n))
		if rerr != nil {
			if isRetryable(rerr) {
				continue
			}
			return n, corelib.WrapError(corelib.ErrIO, rerr)
		}
		if m == 0 {
			// EOF: zero the remainder so callers never observe leftover
			// bytes from a reused buffer.
			for i := n; i < len(buf); i++ {
				buf[i] = 0
			}
			return n, nil
		}
		n += m
	}
	return n, nil
}

// WriteAt writes all of buf starting at off, retrying internally on EINTR
// and on short writes, then extends the tracked eof to cover the write.
func (f *File) WriteAt(buf []byte, off int64, timing *OpTiming) (n int, err error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	if err := checkOffset(off); err != nil {
		return 0, err
	}
	fd := int(f.f.Fd())
	for n < len(buf) {
		m, werr := unix.Pwrite(fd, buf[n:], off+int64(n))
		if werr != nil {
			if isRetryable(werr) {
				continue
			}
			return n, corelib.WrapError(corelib.ErrIO, werr)
		}
		n += m
	}
	if end := off + int64(n); end > f.eof {
		f.eof = end
	}
	if f.eof > f.eoa {
		f.eoa = f.eof
	}
	return n, nil
}

// Truncate sets the file's physical size, per POSIX ftruncate semantics (it
// can both grow and shrink the file). A nil size truncates to the shim's
// current end-of-allocation instead.
func (f *File) Truncate(size *int64, timing *OpTiming) error {
	start := time.Now()
	defer recordElapsed(timing, start)
	target := f.eoa
	if size != nil {
		target = *size
	}
	if err := checkOffset(target); err != nil {
		return err
	}
	if err := f.f.Truncate(target); err != nil {
		return corelib.WrapError(corelib.ErrIO, err)
	}
	f.eoa = target
	if f.eof > target {
		f.eof = target
	}
	return nil
}

// Sync flushes the file's data and metadata to stable storage.
func (f *File) Sync() error {
	if err := f.f.Sync(); err != nil {
		return corelib.WrapError(corelib.ErrIO, err)
	}
	return nil
}

// Lock takes (or releases, via mode with Unlock) an advisory flock-based
// lock on the whole file. A no-op when DisableLocks has been called.
func (f *File) Lock(mode LockMode, timing *OpTiming) error {
	start := time.Now()
	defer recordElapsed(timing, start)
	if f.locksDisabled {
		return nil
	}
	how := unix.LOCK_SH
	if mode == LockExclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(f.f.Fd()), how); err != nil {
		if f.isLockUnsupported(err) {
			return corelib.NewError(corelib.ErrLockUnsupported)
		}
		return corelib.WrapError(corelib.ErrLockFailure, err)
	}
	return nil
}

// TryLock is the non-blocking counterpart to Lock.
func (f *File) TryLock(mode LockMode, timing *OpTiming) (acquired bool, err error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	if f.locksDisabled {
		return true, nil
	}
	how := unix.LOCK_SH | unix.LOCK_NB
	if mode == LockExclusive {
		how = unix.LOCK_EX | unix.LOCK_NB
	}
	if err := unix.Flock(int(f.f.Fd()), how); err != nil {
		if err == unix.EWOULDBLOCK {
			return false, nil
		}
		if f.isLockUnsupported(err) {
			return false, corelib.NewError(corelib.ErrLockUnsupported)
		}
		return false, corelib.WrapError(corelib.ErrLockFailure, err)
	}
	return true, nil
}

// Unlock releases a lock taken by Lock or TryLock.
func (f *File) Unlock(timing *OpTiming) error {
	start := time.Now()
	defer recordElapsed(timing, start)
	if f.locksDisabled {
		return nil
	}
	if err := unix.Flock(int(f.f.Fd()), unix.LOCK_UN); err != nil {
		return corelib.WrapError(corelib.ErrUnlockFailure, err)
	}
	return nil
}

func (f *File) isLockUnsupported(err error) bool {
	return err == unix.ENOLCK || err == unix.EOPNOTSUPP || err == unix.ENOSYS
}

// Timing reports size, mtime and (device, inode) identity for the file.
func (f *File) Timing(timing *OpTiming) (TimingInfo, error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	var st unix.Stat_t
	if err := unix.Fstat(int(f.f.Fd()), &st); err != nil {
		return TimingInfo{}, corelib.WrapError(corelib.ErrIO, err)
	}
	return TimingInfo{
		ModTime: st.Mtim.Sec*1e9 + st.Mtim.Nsec,
		Size:    st.Size,
		Identity: Identity{
			Device: uint64(st.Dev),
			Inode:  st.Ino,
		},
	}, nil
}

// Remove deletes the named file.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return corelib.WrapError(corelib.ErrIO, err)
	}
	return nil
}
