package corelib

import (
	"sync"
	"testing"
	"time"
)

func TestRwLockRecursiveRead(t *testing.T) {
	l := NewRwLock()
	l.RLock()
	l.RLock()
	if err := l.RUnlock(); err != nil {
		t.Fatal(err)
	}
	if err := l.RUnlock(); err != nil {
		t.Fatal(err)
	}
}

func TestRwLockRecursiveWrite(t *testing.T) {
	l := NewRwLock()
	l.Lock()
	l.Lock()
	if d := l.WriterDepthForCurrent(); d != 2 {
		t.Fatalf("expected writer depth 2, got %d", d)
	}
	if err := l.Unlock(); err != nil {
		t.Fatal(err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestRwLockWriterPromotedRead(t *testing.T) {
	l := NewRwLock()
	l.Lock()
	l.RLock() // promoted recursive read while holding the write lock
	if err := l.RUnlock(); err != nil {
		t.Fatal(err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestRwLockMultipleReaders(t *testing.T) {
	l := NewRwLock()
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RLock()
			<-done
			l.RUnlock()
		}()
	}
	time.Sleep(20 * time.Millisecond)
	if n := l.Stats().MaxReaders; n < 1 {
		t.Fatalf("expected at least one concurrent reader recorded, got %d", n)
	}
	close(done)
	wg.Wait()
}

func TestRwLockWriterPreference(t *testing.T) {
	l := NewRwLock()
	l.RLock() // one active reader

	writerDone := make(chan struct{})
	go func() {
		l.Lock()
		close(writerDone)
		l.Unlock()
	}()

	time.Sleep(20 * time.Millisecond) // let the writer register as waiting

	newReaderGotIn := make(chan bool, 1)
	go func() {
		l.RLock()
		newReaderGotIn <- true
		l.RUnlock()
	}()

	select {
	case <-newReaderGotIn:
		t.Fatal("a new reader was admitted ahead of a waiting writer")
	case <-time.After(30 * time.Millisecond):
		// expected: the new reader is still queued behind the writer.
	}

	l.RUnlock() // release the original reader; the writer should now proceed

	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("waiting writer was never admitted")
	}
}

func TestRwLockUnlockNotOwned(t *testing.T) {
	l := NewRwLock()
	if err := l.Unlock(); err == nil {
		t.Fatal("expected error unlocking a write lock not held")
	}
	if err := l.RUnlock(); err == nil {
		t.Fatal("expected error unlocking a read lock not held")
	}
}
