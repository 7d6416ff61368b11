package corefile

import (
	"testing"

	"github.com/scidata/corelib"
	"github.com/scidata/corelib/freelist"
)

func newTestIndex() *dirtyRegionIndex {
	caps := freelist.NewCaps(corelib.NoCap, corelib.NoCap)
	reg := freelist.NewRegistry(caps)
	return newDirtyRegionIndex(reg, caps)
}

func regionSlice(idx *dirtyRegionIndex) [][2]int64 {
	out := make([][2]int64, len(idx.regions))
	for i, r := range idx.regions {
		out[i] = [2]int64{r.start, r.end}
	}
	return out
}

func TestDirtyRegionInsertDisjointKeepsBothSorted(t *testing.T) {
	idx := newTestIndex()
	idx.insertOrMerge(4096, 8191)
	idx.insertOrMerge(0, 4095)

	got := regionSlice(idx)
	want := [][2]int64{{0, 4095}, {4096, 8191}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestDirtyRegionMergingChain is scenario S5: page size 4096, writes at
// offset 100/len 10, 5000/len 10, 4090/len 20 merge into one [0, 8191]
// region once their page-aligned expansions are unioned.
func TestDirtyRegionMergingChain(t *testing.T) {
	idx := newTestIndex()
	const pageSize = 4096

	expand := func(addr, size int64) (int64, int64) {
		start := (addr / pageSize) * pageSize
		end := ((addr+size+pageSize-1)/pageSize)*pageSize - 1
		return start, end
	}

	s, e := expand(100, 10)
	idx.insertOrMerge(s, e)
	s, e = expand(5000, 10)
	idx.insertOrMerge(s, e)
	s, e = expand(4090, 20)
	idx.insertOrMerge(s, e)

	got := regionSlice(idx)
	if len(got) != 1 {
		t.Fatalf("expected exactly one merged region, got %v", got)
	}
	if got[0] != [2]int64{0, 8191} {
		t.Fatalf("expected [0, 8191], got %v", got[0])
	}
}

func TestDirtyRegionLessAndRemoveFirst(t *testing.T) {
	idx := newTestIndex()
	idx.insertOrMerge(0, 99)
	idx.insertOrMerge(200, 299)
	idx.insertOrMerge(400, 499)

	pred, ok := idx.less(250)
	if !ok || pred.start != 200 {
		t.Fatalf("expected predecessor of 250 to start at 200, got %+v (ok=%v)", pred, ok)
	}

	first, ok := idx.removeFirst()
	if !ok || first.start != 0 {
		t.Fatalf("expected removeFirst to return the region starting at 0, got %+v", first)
	}
	if len(idx.regions) != 2 {
		t.Fatalf("expected 2 regions remaining, got %d", len(idx.regions))
	}
}

func TestDirtyRegionClampEOFDropsAndTruncates(t *testing.T) {
	idx := newTestIndex()
	idx.insertOrMerge(0, 4095)
	idx.insertOrMerge(8192, 12287)

	idx.clampEOF(6000)

	got := regionSlice(idx)
	if len(got) != 1 {
		t.Fatalf("expected the region beyond eof to be dropped, got %v", got)
	}
	if got[0] != [2]int64{0, 5999} {
		t.Fatalf("expected the surviving region truncated to [0, 5999], got %v", got[0])
	}
}

func TestDirtyRegionArenaRecyclesFreedNodes(t *testing.T) {
	idx := newTestIndex()
	idx.insertOrMerge(0, 99)
	idx.remove(0)

	if n := idx.arena.Alloc(); n == nil {
		t.Fatal("expected the arena to recycle the node freed by remove")
	}
}
