package service

import (
	"sort"
	"sync"
)

// EntityLocks provides one mutex per entity key. Every service that runs a
// decide-then-write sequence on an item, swap, or member must lock through
// the same registry, so settlement and moderation on the same entity
// serialize within this process. The store's compare-and-set writes remain
// the final authority.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// NewEntityLocks creates an empty lock registry. One instance is shared by
// all services touching the same store.
func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*entryLock)}
}

// Lock acquires the mutex for a key, creating it on first use.
func (el *EntityLocks) Lock(key string) {
	el.mu.Lock()
	l, ok := el.locks[key]
	if !ok {
		l = &entryLock{}
		el.locks[key] = l
	}
	l.refs++
	el.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the mutex for a key, dropping it when no one is waiting.
func (el *EntityLocks) Unlock(key string) {
	el.mu.Lock()
	l, ok := el.locks[key]
	if ok {
		l.refs--
		if l.refs == 0 {
			delete(el.locks, key)
		}
	}
	el.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}

// LockAll acquires multiple keys in sorted order so two settlements that
// share items can never deadlock. Returns the unlock function.
func (el *EntityLocks) LockAll(keys ...string) func() {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	// Dedupe; locking the same key twice would self-deadlock.
	uniq := sorted[:0]
	for i, k := range sorted {
		if i == 0 || sorted[i-1] != k {
			uniq = append(uniq, k)
		}
	}

	for _, k := range uniq {
		el.Lock(k)
	}

	return func() {
		// Release in reverse acquisition order.
		for i := len(uniq) - 1; i >= 0; i-- {
			el.Unlock(uniq[i])
		}
	}
}
