package httpapi

import (
	"errors"
	"sync"
)

var errCorpusBusy = errors.New("a sync tick is already running for this corpus")

// keyedMutex hands out one lock per key. Entries are dropped once unlocked
// and unreferenced.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// TryLock acquires the lock for key without blocking. The returned func
// releases it; ok is false if another holder has it.
func (k *keyedMutex) TryLock(key string) (unlock func(), ok bool) {
	k.mu.Lock()
	e, exists := k.locks[key]
	if !exists {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	if !e.mu.TryLock() {
		k.release(key, e)
		return nil, false
	}

	return func() {
		e.mu.Unlock()
		k.release(key, e)
	}, true
}

func (k *keyedMutex) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
