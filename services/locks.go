package services

import (
	"fmt"
	"sync"
)

// keyedMutex serializes work per entity (one order, one table) without a
// global lock. Entries are created on first use and kept for the process
// lifetime; the key space is bounded by the number of rows ever touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func orderKey(id uint) string {
	return fmt.Sprintf("order:%d", id)
}

func tableKey(id uint) string {
	return fmt.Sprintf("table:%d", id)
}
