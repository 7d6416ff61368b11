package corelib

import "sync/atomic"

// AtomicCounter is a monotonically-adjustable 64-bit counter used for
// lock-free diagnostics, such as the API lock's attempt count (§6).
type AtomicCounter struct {
	v int64
}

// Inc adds one and returns the new value.
func (c *AtomicCounter) Inc() uint64 { return uint64(atomic.AddInt64(&c.v, 1)) }

// Add adds delta and returns the new value.
func (c *AtomicCounter) Add(delta int64) uint64 { return uint64(atomic.AddInt64(&c.v, delta)) }

// Load returns the current value.
func (c *AtomicCounter) Load() uint64 { return uint64(atomic.LoadInt64(&c.v)) }
