package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyLocker_SerializesSameKey(t *testing.T) {
	var k keyLocker
	var inflight, peak atomic.Int32

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("a")
			defer unlock()
			n := inflight.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(time.Millisecond)
			inflight.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got != 1 {
		t.Fatalf("peak holders = %d, want 1", got)
	}
	if got := k.held(); got != 0 {
		t.Fatalf("held keys = %d, want 0 after release", got)
	}
}

func TestKeyLocker_DistinctKeysDoNotBlock(t *testing.T) {
	var k keyLocker
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}
