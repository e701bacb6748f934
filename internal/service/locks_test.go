package service

import (
	"sync"
	"testing"
	"time"
)

func TestEntityLocksSerializeSameKey(t *testing.T) {
	el := NewEntityLocks()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			el.Lock("item-1")
			defer el.Unlock("item-1")
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter: got %d, want 50", counter)
	}

	// The lock table should be empty again.
	el.mu.Lock()
	n := len(el.locks)
	el.mu.Unlock()
	if n != 0 {
		t.Errorf("lock table: %d entries left", n)
	}
}

func TestLockAllNoDeadlockOnSharedKeys(t *testing.T) {
	el := NewEntityLocks()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		// Opposite orderings of the same pair; sorted acquisition makes
		// this safe.
		for i := 0; i < 100; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				unlock := el.LockAll("item-a", "item-b")
				unlock()
			}()
			go func() {
				defer wg.Done()
				unlock := el.LockAll("item-b", "item-a")
				unlock()
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock: LockAll goroutines did not finish")
	}
}

func TestLockAllDedupesKeys(t *testing.T) {
	el := NewEntityLocks()

	done := make(chan struct{})
	go func() {
		unlock := el.LockAll("item-a", "item-a")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("self-deadlock on duplicate key")
	}
}
