package corelib

import "fmt"

// Version constants for the core library itself, independent of the
// backend (POSIX-like vs native-Windows-like) selected at build time.
const (
	Major = 0
	Minor = 1
	Patch = 0
)

// Backend identifies which primitive-sync backend this build was compiled
// against. Selection happens at build time via the "unix"/"windows" build
// tags on the files in this package and in posixfile.
type Backend string

const (
	BackendPosix   Backend = "posix"
	BackendWindows Backend = "windows"
)

// Version returns a human-readable version string.
func Version() string {
	return fmt.Sprintf("corelib %d.%d.%d (%s)", Major, Minor, Patch, currentBackend)
}
