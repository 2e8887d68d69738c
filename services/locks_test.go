package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(orderKey(1))
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := newKeyedMutex()

	unlockOrder := locks.Lock(orderKey(1))
	defer unlockOrder()

	// A different key must not block.
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(tableKey(1))
		unlock()
		close(done)
	}()
	<-done
}
