// Package corefile implements the page-tracked in-memory file (§4.9): a
// buffer sized in multiples of a growth increment, with an optional
// backing file and an optional page-aligned dirty-region index (§4.10)
// recycled through the free-list arenas.
//
// A CoreFile carries no lock of its own -- per the shared-resource policy,
// its dirty-region index is single-writer per file and is only ever
// touched while the caller already holds the library's API lock
// (corelib.AcquireAPILock / corelib.EnterWrite).
package corefile

import (
	"os"

	"github.com/scidata/corelib"
	"github.com/scidata/corelib/freelist"
	"github.com/scidata/corelib/posixfile"
)

// Mode selects how the backing file, if any, is opened.
type Mode int

const (
	ModeReadOnly Mode = iota
	ModeReadWrite
)

// Options configures a CoreFile at Open.
type Options struct {
	// Increment is the growth unit for the in-memory buffer; the buffer's
	// length is always a multiple of it.
	Increment int64
	// PageSize is the dirty-region alignment granularity. Zero disables
	// write-tracking even when Mode is ModeReadWrite.
	PageSize int64
	Mode     Mode
	// BackingPath, if non-empty and Image is nil, is opened (and created,
	// in ModeReadWrite) as the file's backing store and read for the
	// initial content.
	BackingPath string
	// Image, if non-nil, seeds the initial content. BackingPath is then
	// ignored: no backing file is opened, so Flush and Close write nothing
	// to disk.
	Image []byte
	// FreeFunc, if set, is called with the buffer on Close instead of
	// leaving it to the garbage collector -- mirroring the user-supplied
	// free callback the spec allows at this layer.
	FreeFunc func([]byte)
	// IgnoreDisabledLocks disables advisory locking on the backing file.
	IgnoreDisabledLocks bool
}

// CoreFile is the in-memory file described by §4.9.
type CoreFile struct {
	opt   Options
	buf   []byte
	eof   int64 // length of valid content
	eoa   int64 // end of allocated address space; eoa >= eof
	dirty bool

	index   *dirtyRegionIndex
	backing *posixfile.File
}

func roundUpNonZero(n, increment int64) int64 {
	if n <= 0 {
		return increment
	}
	return ((n + increment - 1) / increment) * increment
}

// Open creates a CoreFile per the §4.9 open path. reg and caps wire the
// dirty-region index's node arena into the caller's free-list class
// accounting; pass the same pair used elsewhere for the regular class if
// no dedicated cap is needed.
func Open(opt Options, reg *freelist.Registry, caps *freelist.Caps) (*CoreFile, error) {
	if opt.Increment <= 0 {
		return nil, corelib.NewError(corelib.ErrProgrammer)
	}

	cf := &CoreFile{opt: opt}

	var initial []byte
	switch {
	case opt.Image != nil:
		initial = opt.Image
	case opt.BackingPath != "":
		flag := os.O_RDONLY
		if opt.Mode == ModeReadWrite {
			flag = os.O_RDWR | os.O_CREATE
		}
		f, err := posixfile.Open(opt.BackingPath, flag, 0o644, nil)
		if err != nil {
			return nil, err
		}
		if opt.IgnoreDisabledLocks {
			f.DisableLocks()
		}
		ti, err := f.Timing(nil)
		if err != nil {
			f.Close(nil)
			return nil, err
		}
		if ti.Size > 0 {
			initial = make([]byte, ti.Size)
			if _, err := f.ReadAt(initial, 0, nil); err != nil {
				f.Close(nil)
				return nil, err
			}
		}
		cf.backing = f
	}

	cf.eof = int64(len(initial))
	cf.eoa = cf.eof
	cf.buf = make([]byte, roundUpNonZero(cf.eof, opt.Increment))
	copy(cf.buf, initial)

	if opt.PageSize > 0 && opt.Mode == ModeReadWrite {
		cf.index = newDirtyRegionIndex(reg, caps)
	}
	return cf, nil
}

// ensureCapacity grows the buffer, by Increment multiples, to cover end.
func (cf *CoreFile) ensureCapacity(end int64) {
	if end <= int64(len(cf.buf)) {
		return
	}
	grown := make([]byte, roundUpNonZero(end, cf.opt.Increment))
	copy(grown, cf.buf)
	cf.buf = grown
}

// WriteAt is the §4.9 write path: it extends the buffer as needed,
// zero-initializing the extension, copies data in, marks the file dirty,
// and -- when write-tracking is enabled -- inserts or merges the
// corresponding page-aligned dirty region.
func (cf *CoreFile) WriteAt(data []byte, addr int64) error {
	if addr < 0 {
		return corelib.NewError(corelib.ErrOverflow)
	}
	if len(data) == 0 {
		return nil
	}
	end := addr + int64(len(data))
	cf.ensureCapacity(end)
	copy(cf.buf[addr:end], data)

	if end > cf.eof {
		cf.eof = end
	}
	if end > cf.eoa {
		cf.eoa = end
	}
	cf.dirty = true

	if cf.index != nil {
		ps := cf.opt.PageSize
		start := (addr / ps) * ps
		pageEnd := ((end+ps-1)/ps)*ps - 1
		if pageEnd > cf.eof-1 {
			pageEnd = cf.eof - 1
		}
		cf.index.insertOrMerge(start, pageEnd)
	}
	return nil
}

// ReadAt copies bytes out of the in-memory buffer; reads past eof are
// zero-filled rather than erroring, matching the posixfile shim's own
// past-EOF behavior.
func (cf *CoreFile) ReadAt(dst []byte, addr int64) error {
	if addr < 0 {
		return corelib.NewError(corelib.ErrOverflow)
	}
	n := 0
	if addr < cf.eof {
		n = copy(dst, cf.buf[addr:cf.eof])
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

// Flush is the §4.9 flush path: writes the whole buffer when write-
// tracking is off, or walks the dirty-region index in key order
// (truncating each region's end to the current eof) when it is on.
func (cf *CoreFile) Flush() error {
	if cf.backing == nil || !cf.dirty {
		return nil
	}

	if cf.index == nil {
		if _, err := cf.backing.WriteAt(cf.buf[:cf.eof], 0, nil); err != nil {
			return err
		}
		cf.dirty = false
		return nil
	}

	cf.index.clampEOF(cf.eof)
	for {
		r, ok := cf.index.removeFirst()
		if !ok {
			break
		}
		end := r.end
		if end > cf.eof-1 {
			end = cf.eof - 1
		}
		if r.start <= end {
			if _, err := cf.backing.WriteAt(cf.buf[r.start:end+1], r.start, nil); err != nil {
				cf.index.freeNode(r)
				return err
			}
		}
		cf.index.freeNode(r)
	}
	cf.dirty = false
	return nil
}

// Truncate is the §4.9 truncate path. With closing set, it pins eof and
// the backing file's length to eoa. Otherwise it only grows the in-memory
// buffer (rounded up to an Increment multiple, zero-filling the new
// bytes) to cover eoa, leaving the backing file untouched.
func (cf *CoreFile) Truncate(eoa int64, closing bool) error {
	if eoa < 0 {
		return corelib.NewError(corelib.ErrOverflow)
	}

	if closing {
		cf.eof = eoa
		cf.eoa = eoa
		if cf.backing != nil {
			return cf.backing.Truncate(&eoa, nil)
		}
		return nil
	}

	cf.ensureCapacity(eoa)
	if eoa > cf.eoa {
		for i := cf.eoa; i < eoa; i++ {
			cf.buf[i] = 0
		}
	}
	cf.eoa = eoa
	return nil
}

// Close is the §4.9 close path: best-effort flush, then the dirty-region
// index and buffer are torn down, and the backing file is closed if open.
func (cf *CoreFile) Close() error {
	err := cf.Flush()
	if cf.index != nil {
		cf.index.destroy()
		cf.index = nil
	}
	if cf.opt.FreeFunc != nil {
		cf.opt.FreeFunc(cf.buf)
	}
	cf.buf = nil
	if cf.backing != nil {
		if cerr := cf.backing.Close(nil); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// EOF returns the current end-of-file (length of valid content).
func (cf *CoreFile) EOF() int64 { return cf.eof }

// EOA returns the current end of allocated address space.
func (cf *CoreFile) EOA() int64 { return cf.eoa }

// Dirty reports whether the buffer has unflushed writes.
func (cf *CoreFile) Dirty() bool { return cf.dirty }
