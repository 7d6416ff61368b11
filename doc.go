// Package corelib implements the concurrency and memory-management core of
// a scientific data library: a recursive thread-safety substrate that
// serializes entry into the library's public API while allowing recursive
// re-entry and a "disable locking for this thread" escape for user
// callbacks, and a per-thread registry on which that substrate is built.
//
// The free-list arenas (package freelist), the POSIX-like file shim
// (package posixfile) and the memory-resident file (package corefile) build
// on top of this substrate: the arenas guard their metadata with a
// DLFTT-aware mutex from this package, and the memory-resident file uses an
// arena to recycle its dirty-region bookkeeping nodes.
//
// This package intentionally does not implement the file-format layer,
// property lists, error-stack formatting or the driver registry that sit
// above it in the full library; those are external collaborators.
//
// Basic usage of the global API lock:
//
//	var acquired bool
//	if err := corelib.AcquireAPILock(1, &acquired); err != nil {
//	    return err
//	}
//	if !acquired {
//	    return corelib.NewError(corelib.ErrLockFailure)
//	}
//	defer corelib.ReleaseAPILock(nil)
package corelib
