//go:build unix

package corelib

// currentBackend records which primitive-sync backend this build was
// compiled against (§2.1: "portable over two backends").
const currentBackend Backend = BackendPosix

// cancelState models the thread-cancellation pinning that the recursive
// exclusive lock performs on the pthread-like backend: the first
// successful acquire disables the calling thread's cancellability, and the
// final release restores it (§4.1). Goroutines have no POSIX-thread
// cancellation analog, so this backend's hooks are deliberately no-ops;
// the type still exists so ExLock's call sites stay backend-agnostic.
type cancelState struct{}

func (c *cancelState) save()    {}
func (c *cancelState) restore() {}
