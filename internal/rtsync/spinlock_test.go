package rtsync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinLockMutualExclusion(t *testing.T) {
	var lock SpinLock
	var counter int
	var wg sync.WaitGroup

	const goroutines = 50
	const increments = 200

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				lock.Lock()
				counter++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*increments, counter)
}

func TestSpinLockTryLock(t *testing.T) {
	var lock SpinLock

	assert.True(t, lock.TryLock())
	assert.False(t, lock.TryLock())

	lock.Unlock()
	assert.True(t, lock.TryLock())
	lock.Unlock()
}

func TestNoLockIsNoOp(t *testing.T) {
	var lock NoLock
	lock.Lock()
	lock.Lock() // must not deadlock or panic
	lock.Unlock()
}

func TestMicrosSinceElapsed(t *testing.T) {
	start := Now()
	time.Sleep(2 * time.Millisecond)

	us := MicrosSince(start)
	assert.Greater(t, us, uint32(0))
}

func TestMicrosSinceFuture(t *testing.T) {
	assert.Equal(t, uint32(0), MicrosSince(Now().Add(time.Hour)))
}
