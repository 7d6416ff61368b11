//go:build windows

package corelib

// currentBackend records which primitive-sync backend this build was
// compiled against (§2.1: "portable over two backends").
const currentBackend Backend = BackendWindows

// cancelState is a no-op on the native-Windows-like backend: this lock
// never pins cancellability there, matching the source library's
// pthread-only cancellation pinning.
type cancelState struct{}

func (c *cancelState) save()    {}
func (c *cancelState) restore() {}
