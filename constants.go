package corelib

// NoCap is the sentinel for a free-list cap configured as "no limit": the
// maximum representable uint64 (the bit pattern of -1). Callers pass NoCap
// itself to freelist.NewCaps.
const NoCap uint64 = ^uint64(0)

// Default per-list / global memory caps (in bytes), per class. Package
// freelist does not apply them on its own; a class uses them only when
// they are passed to freelist.NewCaps.
const (
	DefaultRegularPerListCap uint64 = 64 * 1024
	DefaultRegularGlobalCap  uint64 = 1 * 1024 * 1024

	DefaultArrayPerListCap uint64 = 256 * 1024
	DefaultArrayGlobalCap  uint64 = 4 * 1024 * 1024

	DefaultBlockPerListCap uint64 = 1 * 1024 * 1024
	DefaultBlockGlobalCap  uint64 = 16 * 1024 * 1024

	DefaultFactoryPerListCap uint64 = 1 * 1024 * 1024
	DefaultFactoryGlobalCap  uint64 = 16 * 1024 * 1024
)

// MaxOffset is the largest representable offset: the signed 63-bit range
// used throughout the POSIX-like file shim and the in-memory file for
// overflow checking, independent of the native width of int64.
const MaxOffset int64 = (1 << 63) - 1
