package posixfile

import (
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data")
	f, err := Open(path, os.O_RDWR|os.O_CREATE, 0o644, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close(nil) })
	return f
}

func TestWriteAtReadAtRoundTrip(t *testing.T) {
	f := openTemp(t)
	want := []byte("hello, world")
	if _, err := f.WriteAt(want, 0, nil); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, len(want))
	if _, err := f.ReadAt(got, 0, nil); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadAtPastEOFZeroFills(t *testing.T) {
	f := openTemp(t)
	if _, err := f.WriteAt([]byte("ab"), 0, nil); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	n, err := f.ReadAt(buf, 0, nil)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 bytes backed by the file, got %d", n)
	}
	if buf[2] != 0 || buf[3] != 0 {
		t.Fatalf("expected the tail past EOF to be zero-filled, got %v", buf)
	}
}

func TestNegativeOffsetOverflows(t *testing.T) {
	f := openTemp(t)
	if _, err := f.WriteAt([]byte("x"), -1, nil); err == nil {
		t.Fatal("expected a negative offset to be rejected")
	}
}

func TestLockExclusiveThenTryLockFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	f1, err := Open(path, os.O_RDWR|os.O_CREATE, 0o644, nil)
	if err != nil {
		t.Fatalf("Open f1: %v", err)
	}
	defer f1.Close(nil)
	f2, err := Open(path, os.O_RDWR, 0o644, nil)
	if err != nil {
		t.Fatalf("Open f2: %v", err)
	}
	defer f2.Close(nil)

	if err := f1.Lock(LockExclusive, nil); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer f1.Unlock(nil)

	acquired, err := f2.TryLock(LockExclusive, nil)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if acquired {
		t.Fatal("expected the second handle's TryLock to fail while f1 holds an exclusive lock")
	}
}

func TestDisableLocksMakesLockNoOp(t *testing.T) {
	f := openTemp(t)
	f.DisableLocks()
	if err := f.Lock(LockExclusive, nil); err != nil {
		t.Fatalf("expected DisableLocks to make Lock a no-op, got %v", err)
	}
	if err := f.Unlock(nil); err != nil {
		t.Fatalf("expected DisableLocks to make Unlock a no-op, got %v", err)
	}
}

func TestTimingReportsSize(t *testing.T) {
	f := openTemp(t)
	if _, err := f.WriteAt([]byte("abcd"), 0, nil); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := f.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	ti, err := f.Timing(nil)
	if err != nil {
		t.Fatalf("Timing: %v", err)
	}
	if ti.Size != 4 {
		t.Fatalf("expected size 4, got %d", ti.Size)
	}
}

func TestTruncateGrowsAndShrinks(t *testing.T) {
	f := openTemp(t)
	size := int64(100)
	if err := f.Truncate(&size, nil); err != nil {
		t.Fatalf("Truncate grow: %v", err)
	}
	ti, err := f.Timing(nil)
	if err != nil || ti.Size != 100 {
		t.Fatalf("expected size 100, got %d (err=%v)", ti.Size, err)
	}
	size = 10
	if err := f.Truncate(&size, nil); err != nil {
		t.Fatalf("Truncate shrink: %v", err)
	}
	ti, err = f.Timing(nil)
	if err != nil || ti.Size != 10 {
		t.Fatalf("expected size 10, got %d (err=%v)", ti.Size, err)
	}
}

func TestTruncateNilSizeUsesEOA(t *testing.T) {
	f := openTemp(t)
	if err := f.SetEOA(42, nil); err != nil {
		t.Fatalf("SetEOA: %v", err)
	}
	if err := f.Truncate(nil, nil); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	ti, err := f.Timing(nil)
	if err != nil || ti.Size != 42 {
		t.Fatalf("expected size 42 from tracked EOA, got %d (err=%v)", ti.Size, err)
	}
}

func TestGetSetEOFAndEOA(t *testing.T) {
	f := openTemp(t)
	if err := f.SetEOF(7, nil); err != nil {
		t.Fatalf("SetEOF: %v", err)
	}
	if got := f.GetEOF(nil); got != 7 {
		t.Fatalf("GetEOF: got %d, want 7", got)
	}
	if err := f.SetEOA(20, nil); err != nil {
		t.Fatalf("SetEOA: %v", err)
	}
	if got := f.GetEOA(nil); got != 20 {
		t.Fatalf("GetEOA: got %d, want 20", got)
	}
}

func TestWriteAtExtendsTrackedEOF(t *testing.T) {
	f := openTemp(t)
	if _, err := f.WriteAt([]byte("abcde"), 10, nil); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if got := f.GetEOF(nil); got != 15 {
		t.Fatalf("expected tracked eof 15, got %d", got)
	}
}

func TestCmpSameFileTrue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	f1, err := Open(path, os.O_RDWR|os.O_CREATE, 0o644, nil)
	if err != nil {
		t.Fatalf("Open f1: %v", err)
	}
	defer f1.Close(nil)
	f2, err := Open(path, os.O_RDWR, 0o644, nil)
	if err != nil {
		t.Fatalf("Open f2: %v", err)
	}
	defer f2.Close(nil)

	same, err := Cmp(f1, f2, nil)
	if err != nil {
		t.Fatalf("Cmp: %v", err)
	}
	if !same {
		t.Fatal("expected two descriptors on the same path to compare equal")
	}
}

func TestCmpDifferentFilesFalse(t *testing.T) {
	dir := t.TempDir()
	f1, err := Open(filepath.Join(dir, "a"), os.O_RDWR|os.O_CREATE, 0o644, nil)
	if err != nil {
		t.Fatalf("Open f1: %v", err)
	}
	defer f1.Close(nil)
	f2, err := Open(filepath.Join(dir, "b"), os.O_RDWR|os.O_CREATE, 0o644, nil)
	if err != nil {
		t.Fatalf("Open f2: %v", err)
	}
	defer f2.Close(nil)

	same, err := Cmp(f1, f2, nil)
	if err != nil {
		t.Fatalf("Cmp: %v", err)
	}
	if same {
		t.Fatal("expected two distinct files to compare unequal")
	}
}

func TestOpTimingRecordsElapsed(t *testing.T) {
	f := openTemp(t)
	var timing OpTiming
	if _, err := f.WriteAt([]byte("abc"), 0, &timing); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if timing.Elapsed <= 0 {
		t.Fatal("expected OpTiming to record a nonzero elapsed duration")
	}
}
