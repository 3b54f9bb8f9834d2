package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiverWaitBlocksUntilPush(t *testing.T) {
	f := NewFramework(WithThreadCount(1))
	defer f.Close()

	r := NewReceiver(nil)
	defer r.Close()
	Catch[int](r, func(int, Address) {})

	done := make(chan uint64, 1)
	go func() { done <- r.Wait(1) }()

	select {
	case <-done:
		t.Fatal("Wait returned before any message arrived")
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, Send(f, 7, NullAddress, r.GetAddress()))

	select {
	case n := <-done:
		assert.Equal(t, uint64(1), n)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after a message arrived")
	}
}

func TestReceiverConsumeWithoutBlocking(t *testing.T) {
	r := NewReceiver(nil)
	defer r.Close()
	assert.Equal(t, uint64(0), r.Consume(5))

	Catch[int](r, func(int, Address) {})

	f := NewFramework(WithThreadCount(1))
	defer f.Close()

	require.True(t, Send(f, 1, NullAddress, r.GetAddress()))
	require.Eventually(t, func() bool { return r.Count() == 1 }, time.Second, time.Millisecond)

	assert.EqualValues(t, 1, r.Consume(5))
	assert.EqualValues(t, 0, r.Count())
}

func TestReceiverResetClearsCounters(t *testing.T) {
	r := NewReceiver(nil)
	defer r.Close()
	Catch[int](r, func(int, Address) {})

	f := NewFramework(WithThreadCount(1))
	defer f.Close()

	require.True(t, Send(f, 1, NullAddress, r.GetAddress()))
	require.Eventually(t, func() bool { return r.Count() == 1 }, time.Second, time.Millisecond)

	r.Reset()
	assert.EqualValues(t, 0, r.Count())
}

func TestReceiverDeregisterHandlerStopsDispatch(t *testing.T) {
	r := NewReceiver(nil)
	defer r.Close()

	calls := 0
	handler := func(n int, from Address) { calls++ }
	RegisterReceiverHandler[int](r, handler)
	assert.True(t, DeregisterReceiverHandler[int](r, handler))
	assert.False(t, DeregisterReceiverHandler[int](r, handler))

	f := NewFramework(WithThreadCount(1))
	defer f.Close()

	require.True(t, Send(f, 1, NullAddress, r.GetAddress()))
	require.Eventually(t, func() bool { return r.Count() == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, 0, calls)
}
