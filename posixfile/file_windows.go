//go:build windows

package posixfile

import (
	"os"
	"time"

	"golang.org/x/sys/windows"

	"github.com/scidata/corelib"
)

// errEINTR has no Windows analog and only stands in as a placeholder so the
// shared isRetryable compiles; this backend's ReadAt and WriteAt never call
// isRetryable and do not retry on error.
var errEINTR = windows.ERROR_IO_PENDING

// ReadAt reads len(buf) bytes starting at off. os.File already performs
// positional reads via a per-call OVERLAPPED structure on Windows, so no
// manual retry loop is needed beyond the short-read accumulation every
// backend does. A read that runs off the end of the file zero-fills the
// remainder of buf.
func (f *File) ReadAt(buf []byte, off int64, timing *OpTiming) (n int, err error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	if err := checkOffset(off); err != nil {
		return 0, err
	}
	for n < len(buf) {
		m, rerr := f.f.ReadAt(buf[n:], off+int64(n))
		n += m
		if rerr != nil {
			if rerr.Error() == "EOF" {
				for i := n; i < len(buf); i++ {
					buf[i] = 0
				}
				return n, nil
			}
			return n, corelib.WrapError(corelib.ErrIO, rerr)
		}
		if m == 0 {
			break
		}
	}
	return n, nil
}

// WriteAt writes all of buf starting at off, then extends the tracked eof
// to cover the write.
func (f *File) WriteAt(buf []byte, off int64, timing *OpTiming) (n int, err error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	if err := checkOffset(off); err != nil {
		return 0, err
	}
	for n < len(buf) {
		m, werr := f.f.WriteAt(buf[n:], off+int64(n))
		n += m
		if werr != nil {
			return n, corelib.WrapError(corelib.ErrIO, werr)
		}
		if m == 0 {
			break
		}
	}
	if end := off + int64(n); end > f.eof {
		f.eof = end
	}
	if f.eof > f.eoa {
		f.eoa = f.eof
	}
	return n, nil
}

// Truncate sets the file's physical size. A nil size truncates to the
// shim's current end-of-allocation instead.
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

// Lock takes (or releases, via Unlock) an advisory byte-range lock
// covering the whole file, via LockFileEx. A no-op when DisableLocks has
// been called.
func (f *File) Lock(mode LockMode, timing *OpTiming) error {
	start := time.Now()
	defer recordElapsed(timing, start)
	if f.locksDisabled {
		return nil
	}
	var flags uint32
	if mode == LockExclusive {
		flags = windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	ov := windows.Overlapped{}
	if err := windows.LockFileEx(windows.Handle(f.f.Fd()), flags, 0, 1, 0, &ov); err != nil {
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
	flags := uint32(windows.LOCKFILE_FAIL_IMMEDIATELY)
	if mode == LockExclusive {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	ov := windows.Overlapped{}
	if err := windows.LockFileEx(windows.Handle(f.f.Fd()), flags, 0, 1, 0, &ov); err != nil {
		if err == windows.ERROR_LOCK_VIOLATION {
			return false, nil
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
	ov := windows.Overlapped{}
	if err := windows.UnlockFileEx(windows.Handle(f.f.Fd()), 0, 1, 0, &ov); err != nil {
		return corelib.WrapError(corelib.ErrUnlockFailure, err)
	}
	return nil
}

// Timing reports size, mtime and (volume serial, file index) identity.
func (f *File) Timing(timing *OpTiming) (TimingInfo, error) {
	start := time.Now()
	defer recordElapsed(timing, start)
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(windows.Handle(f.f.Fd()), &info); err != nil {
		return TimingInfo{}, corelib.WrapError(corelib.ErrIO, err)
	}
	mtime := windows.Filetime(info.LastWriteTime).Nanoseconds()
	size := int64(info.FileSizeHigh)<<32 | int64(info.FileSizeLow)
	return TimingInfo{
		ModTime: mtime,
		Size:    size,
		Identity: Identity{
			Device: uint64(info.VolumeSerialNumber),
			Inode:  uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow),
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
