package graph

import "sync"

const defaultMaxIdleLocks = 1024

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex serializes runs per thread id. Idle entries are evicted once the
// registry grows past maxIdle, bounding memory across long-lived processes.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
	maxIdle int
}

func newKeyedMutex(maxIdle int) *keyedMutex {
	return &keyedMutex{
		entries: make(map[string]*lockEntry),
		maxIdle: maxIdle,
	}
}

// lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 && len(k.entries) > k.maxIdle {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
