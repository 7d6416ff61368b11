package corefile

import (
	"sort"

	"github.com/scidata/corelib/freelist"
)

// dirtyRegionNode is one page-aligned closed interval of dirty bytes
// (§4.10), recycled through a freelist arena rather than left to the
// garbage collector -- consistent with the rest of the core's "recycle
// fixed shapes, never a general allocator" policy.
type dirtyRegionNode struct {
	start, end int64 // closed interval: bytes [start, end] are dirty
}

// dirtyRegionIndex is the ordered index of §4.10: keyed on region start,
// supporting insert/remove/search plus the two traversal primitives merge
// needs -- less(key) (the greatest entry strictly less than key) and
// removeFirst (detach and return the smallest entry). Modeled as a sorted
// slice of arena-recycled node pointers rather than a linked skip list, per
// the "arena of typed records + explicit indices, avoid pointer graphs"
// guidance this core follows throughout.
//
// Single-writer per file: every method here assumes the caller already
// holds the owning CoreFile's exclusive section (the library's API lock in
// the wider system), so the index itself carries no internal lock.
type dirtyRegionIndex struct {
	regions []*dirtyRegionNode
	arena   *freelist.RegularHead[*dirtyRegionNode]
}

func newDirtyRegionIndex(reg *freelist.Registry, caps *freelist.Caps) *dirtyRegionIndex {
	return &dirtyRegionIndex{
		arena: freelist.NewRegularHead[*dirtyRegionNode](reg, caps, 16),
	}
}

func (idx *dirtyRegionIndex) allocNode(start, end int64) *dirtyRegionNode {
	n := idx.arena.Alloc()
	if n == nil {
		n = &dirtyRegionNode{}
	}
	n.start, n.end = start, end
	return n
}

func (idx *dirtyRegionIndex) freeNode(n *dirtyRegionNode) {
	idx.arena.Free(n)
}

// lowerBound returns the index of the first region whose start is >= key.
func (idx *dirtyRegionIndex) lowerBound(key int64) int {
	return sort.Search(len(idx.regions), func(i int) bool {
		return idx.regions[i].start >= key
	})
}

// less returns the greatest entry whose start is strictly less than key.
func (idx *dirtyRegionIndex) less(key int64) (*dirtyRegionNode, bool) {
	i := idx.lowerBound(key)
	if i == 0 {
		return nil, false
	}
	return idx.regions[i-1], true
}

// search returns the region starting exactly at key, if any.
func (idx *dirtyRegionIndex) search(key int64) (*dirtyRegionNode, bool) {
	i := idx.lowerBound(key)
	if i < len(idx.regions) && idx.regions[i].start == key {
		return idx.regions[i], true
	}
	return nil, false
}

// removeFirst detaches and returns the smallest entry.
func (idx *dirtyRegionIndex) removeFirst() (*dirtyRegionNode, bool) {
	if len(idx.regions) == 0 {
		return nil, false
	}
	n := idx.regions[0]
	idx.regions = idx.regions[1:]
	return n, true
}

// remove deletes the region with the given start, if present.
func (idx *dirtyRegionIndex) remove(start int64) {
	i := idx.lowerBound(start)
	if i < len(idx.regions) && idx.regions[i].start == start {
		idx.freeNode(idx.regions[i])
		idx.regions = append(idx.regions[:i], idx.regions[i+1:]...)
	}
}

// insertOrMerge inserts the closed interval [start, end], absorbing any
// existing region whose end touches or overlaps it on the low side, and
// removing (while extending end over) any existing regions that start
// inside it on the high side (§4.9 write-path merge rules). A region that
// only touches it from above is kept as a separate entry.
func (idx *dirtyRegionIndex) insertOrMerge(start, end int64) {
	i := idx.lowerBound(start)

	// Absorb the predecessor if it touches or overlaps on the low side.
	if i > 0 {
		prev := idx.regions[i-1]
		if prev.end >= start-1 {
			if prev.start < start {
				start = prev.start
			}
			if prev.end > end {
				end = prev.end
			}
			i--
		}
	}

	// Consume every region that starts inside [start, end], extending end
	// over any that reach beyond it.
	j := i
	for j < len(idx.regions) && idx.regions[j].start <= end {
		if idx.regions[j].end > end {
			end = idx.regions[j].end
		}
		idx.freeNode(idx.regions[j])
		j++
	}

	node := idx.allocNode(start, end)
	merged := make([]*dirtyRegionNode, 0, len(idx.regions)-(j-i)+1)
	merged = append(merged, idx.regions[:i]...)
	merged = append(merged, node)
	merged = append(merged, idx.regions[j:]...)
	idx.regions = merged
}

// clampEOF truncates every region's end to at most eof-1, dropping any
// region that starts at or beyond eof entirely -- used by Flush.
func (idx *dirtyRegionIndex) clampEOF(eof int64) {
	out := idx.regions[:0]
	for _, r := range idx.regions {
		if r.start >= eof {
			idx.freeNode(r)
			continue
		}
		if r.end >= eof {
			r.end = eof - 1
		}
		out = append(out, r)
	}
	idx.regions = out
}

// destroy frees every node back to the arena and drops the index.
func (idx *dirtyRegionIndex) destroy() {
	for _, r := range idx.regions {
		idx.freeNode(r)
	}
	idx.regions = nil
}

// isEmpty reports whether the index currently tracks no dirty bytes.
func (idx *dirtyRegionIndex) isEmpty() bool { return len(idx.regions) == 0 }
