package freelist

import "testing"

func TestBitmapMarkTestUnmarkRoundTrip(t *testing.T) {
	b := NewBitmap(128)
	for i := uint32(0); i < 128; i++ {
		if b.Test(i) {
			t.Fatalf("expected bucket %d to start unmarked", i)
		}
		b.Mark(i)
		if !b.Test(i) {
			t.Fatalf("expected bucket %d to be marked after Mark", i)
		}
	}
	b.Unmark(64)
	if b.Test(64) {
		t.Fatal("expected bucket 64 to be unmarked after Unmark")
	}
	if !b.Test(63) || !b.Test(65) {
		t.Fatal("expected neighboring buckets to be unaffected by Unmark")
	}
}

func TestBitmapOutOfRangeIsNoOp(t *testing.T) {
	b := NewBitmap(8)
	b.Mark(100) // beyond numSlots, must not panic or corrupt state
	if b.Test(100) {
		t.Fatal("expected an out-of-range bucket to never read as marked")
	}
	b.Unmark(100) // likewise must not panic
}

func TestBitmapGrowPreservesExistingMarks(t *testing.T) {
	b := NewBitmap(4)
	b.Mark(2)
	b.Grow(256)
	if !b.Test(2) {
		t.Fatal("expected bucket 2 to still be marked after Grow")
	}
	b.Mark(200)
	if !b.Test(200) {
		t.Fatal("expected a bucket beyond the original capacity to be usable after Grow")
	}
}

func TestBitmapResetClearsAllMarks(t *testing.T) {
	b := NewBitmap(16)
	for i := uint32(0); i < 16; i++ {
		b.Mark(i)
	}
	b.Reset()
	for i := uint32(0); i < 16; i++ {
		if b.Test(i) {
			t.Fatalf("expected bucket %d to be unmarked after Reset", i)
		}
	}
}
