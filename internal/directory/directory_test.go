package directory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateAutoAssignsNonZero(t *testing.T) {
	d := New[int]()
	i1 := d.Allocate(0)
	i2 := d.Allocate(0)

	assert.NotZero(t, i1)
	assert.NotZero(t, i2)
	assert.NotEqual(t, i1, i2)
}

func TestSetEntityAndGetEntity(t *testing.T) {
	d := New[string]()
	idx := d.Allocate(0)
	entry := d.GetEntry(idx)
	require.NotNil(t, entry)

	entry.Lock()
	entry.SetEntity("hello")
	entry.Unlock()

	v, ok := entry.GetEntity()
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestDeregisterFreesEntry(t *testing.T) {
	d := New[string]()
	idx := d.Allocate(0)
	entry := d.GetEntry(idx)

	entry.Lock()
	entry.SetEntity("gone soon")
	entry.Unlock()

	d.Deregister(idx)

	_, ok := entry.GetEntity()
	assert.False(t, ok)
}

func TestFreeWhilePinnedPanics(t *testing.T) {
	var e Entry[int]
	e.SetEntity(42)
	e.Pin()

	assert.Panics(t, func() { e.Free() })
	e.Unpin()
	assert.NotPanics(t, func() { e.Free() })
}

func TestUnpinWithoutPinPanics(t *testing.T) {
	var e Entry[int]
	assert.Panics(t, func() { e.Unpin() })
}

func TestDeregisterWaitsForUnpin(t *testing.T) {
	d := New[string]()
	idx := d.Allocate(0)
	entry := d.GetEntry(idx)

	entry.Lock()
	entry.SetEntity("pinned")
	entry.Pin()
	entry.Unlock()

	done := make(chan struct{})
	go func() {
		d.Deregister(idx)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Deregister returned before the entry was unpinned")
	case <-time.After(20 * time.Millisecond):
	}

	entry.Lock()
	entry.Unpin()
	entry.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Deregister did not complete after unpin")
	}

	_, ok := entry.GetEntity()
	assert.False(t, ok)
}

func TestConcurrentAllocateReturnsUniqueIndices(t *testing.T) {
	d := New[int]()
	var wg sync.WaitGroup
	seen := make(chan uint32, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- d.Allocate(0)
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[uint32]bool{}
	for idx := range seen {
		assert.False(t, unique[idx], "index %d allocated twice", idx)
		unique[idx] = true
	}
	assert.Len(t, unique, 200)
}
