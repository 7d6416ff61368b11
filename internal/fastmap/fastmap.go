// Package fastmap provides a fast hash map for integer keys, used by the
// freelist package to look up a factory arena's head by its handle id
// without walking the global handle chain.
package fastmap

import "unsafe"

// Uint32Map is a fast hash map from uint32 to unsafe.Pointer. Uses open
// addressing with linear probing, fibonacci hashing, and tombstone-marked
// deletion (tombstones are purged whenever the table grows).
type Uint32Map struct {
	buckets []bucket
	used    int // occupied + tombstone slots; drives the grow threshold
	live    int // occupied slots only; what Len() reports
	mask    uint32
}

type bucketState uint8

const (
	stateEmpty bucketState = iota
	stateOccupied
	stateTombstone
)

type bucket struct {
	key   uint32
	value unsafe.Pointer
	state bucketState
}

// fibHash32 is 2^32 divided by the golden ratio, for fibonacci hashing.
const fibHash32 = 2654435769

func (m *Uint32Map) hash(key uint32) uint32 {
	return key * fibHash32
}

// Get returns the value for key and whether it was present.
func (m *Uint32Map) Get(key uint32) (unsafe.Pointer, bool) {
	if len(m.buckets) == 0 {
		return nil, false
	}
	idx := m.hash(key) & m.mask
	for {
		b := &m.buckets[idx]
		switch b.state {
		case stateEmpty:
			return nil, false
		case stateOccupied:
			if b.key == key {
				return b.value, true
			}
		}
		idx = (idx + 1) & m.mask
	}
}

// Set stores a key-value pair, overwriting any existing value for key.
func (m *Uint32Map) Set(key uint32, value unsafe.Pointer) {
	if len(m.buckets) == 0 {
		m.buckets = make([]bucket, 16)
		m.mask = 15
	} else if m.used >= len(m.buckets)*3/4 {
		m.grow()
	}

	idx := m.hash(key) & m.mask
	firstTombstone := -1
	for {
		b := &m.buckets[idx]
		switch b.state {
		case stateEmpty:
			slot := idx
			if firstTombstone >= 0 {
				slot = uint32(firstTombstone)
			} else {
				m.used++
			}
			tb := &m.buckets[slot]
			tb.key = key
			tb.value = value
			tb.state = stateOccupied
			m.live++
			return
		case stateOccupied:
			if b.key == key {
				b.value = value
				return
			}
		case stateTombstone:
			if firstTombstone < 0 {
				firstTombstone = int(idx)
			}
		}
		idx = (idx + 1) & m.mask
	}
}

// Delete removes key, if present.
func (m *Uint32Map) Delete(key uint32) {
	if len(m.buckets) == 0 {
		return
	}
	idx := m.hash(key) & m.mask
	for {
		b := &m.buckets[idx]
		switch b.state {
		case stateEmpty:
			return
		case stateOccupied:
			if b.key == key {
				b.state = stateTombstone
				b.value = nil
				m.live--
				return
			}
		}
		idx = (idx + 1) & m.mask
	}
}

// grow doubles the table and purges tombstones in the process.
func (m *Uint32Map) grow() {
	old := m.buckets
	m.buckets = make([]bucket, len(old)*2)
	m.mask = uint32(len(m.buckets) - 1)
	m.used = 0
	m.live = 0
	for i := range old {
		if old[i].state == stateOccupied {
			m.Set(old[i].key, old[i].value)
		}
	}
}

// ForEach iterates over all live key-value pairs.
func (m *Uint32Map) ForEach(fn func(uint32, unsafe.Pointer)) {
	for i := range m.buckets {
		if m.buckets[i].state == stateOccupied {
			fn(m.buckets[i].key, m.buckets[i].value)
		}
	}
}

// Clear removes all entries but keeps the backing array.
func (m *Uint32Map) Clear() {
	clear(m.buckets)
	m.used = 0
	m.live = 0
}

// Len returns the number of live entries.
func (m *Uint32Map) Len() int { return m.live }
