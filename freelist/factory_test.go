package freelist

import (
	"testing"

	"github.com/scidata/corelib"
)

func TestFactoryHeadCreateAssignsDistinctIDs(t *testing.T) {
	f := NewFactoryHead(NewCaps(corelib.NoCap, corelib.NoCap))
	h1 := f.Create(32)
	h2 := f.Create(32)
	if h1.ID() == h2.ID() {
		t.Fatalf("expected distinct handle ids, got %d and %d", h1.ID(), h2.ID())
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 live handles, got %d", f.Len())
	}
}

func TestFactoryHeadLookupFindsCreatedHandle(t *testing.T) {
	f := NewFactoryHead(NewCaps(corelib.NoCap, corelib.NoCap))
	h := f.Create(32)
	got, ok := f.Lookup(h.ID())
	if !ok || got != h {
		t.Fatalf("expected Lookup to find the created handle, got %v ok=%v", got, ok)
	}
}

func TestFactoryHandleAllocFreeRoundTrip(t *testing.T) {
	f := NewFactoryHead(NewCaps(corelib.NoCap, corelib.NoCap))
	h := f.Create(8)

	if v := h.Alloc(); v != nil {
		t.Fatalf("expected nil from an empty handle, got %v", v)
	}
	buf := make([]byte, 8)
	h.Free(buf)
	if v := h.Alloc(); v == nil {
		t.Fatal("expected the freed buffer to be recycled")
	}
}

func TestFactoryHeadDestroyRemovesHandleAndIDIsNeverReused(t *testing.T) {
	f := NewFactoryHead(NewCaps(corelib.NoCap, corelib.NoCap))
	h1 := f.Create(8)
	id1 := h1.ID()
	f.Destroy(id1)

	if _, ok := f.Lookup(id1); ok {
		t.Fatal("expected a destroyed handle to no longer be found by Lookup")
	}
	h2 := f.Create(8)
	if h2.ID() == id1 {
		t.Fatalf("expected handle ids to never be reused, got %d twice", id1)
	}
}

func TestFactoryHeadGCCollectsAllHandles(t *testing.T) {
	f := NewFactoryHead(NewCaps(corelib.NoCap, corelib.NoCap))
	h := f.Create(8)
	h.Free(make([]byte, 8))

	f.GC()
	if got := h.onListBytes(); got != 0 {
		t.Fatalf("expected GC to clear the handle's parked bytes, got %d", got)
	}
}
