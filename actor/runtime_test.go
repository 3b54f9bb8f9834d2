package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuntimeIsSingleton(t *testing.T) {
	assert.Same(t, DefaultRuntime(), DefaultRuntime())
}

func TestIsolatedRuntimeDoesNotResolveDefaultRuntimeAddresses(t *testing.T) {
	rt := NewRuntime()

	fIsolated := NewFramework(WithRuntime(rt), WithThreadCount(1))
	defer fIsolated.Close()

	fDefault := NewFramework(WithThreadCount(1))
	defer fDefault.Close()

	a := NewActor(fDefault)
	defer a.Close()

	got := make(chan struct{}, 1)
	RegisterHandler[string](a, func(string, Address) { got <- struct{}{} })

	// fIsolated resolves cross-framework addresses through rt, which
	// fDefault never registered with, so delivery must fail.
	ok := Send(fIsolated, "lost", NullAddress, a.GetAddress())
	assert.False(t, ok)

	select {
	case <-got:
		t.Fatal("message crossed from an isolated runtime into the default one")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewRuntimeFrameworksAreIndependentlyAddressable(t *testing.T) {
	rt := NewRuntime()

	f1 := NewFramework(WithRuntime(rt), WithThreadCount(1))
	defer f1.Close()
	f2 := NewFramework(WithRuntime(rt), WithThreadCount(1))
	defer f2.Close()

	a := NewActor(f2)
	defer a.Close()

	got := make(chan string, 1)
	RegisterHandler[string](a, func(msg string, from Address) { got <- msg })

	require.True(t, Send(f1, "hello", NullAddress, a.GetAddress()))

	select {
	case msg := <-got:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("cross-framework delivery within an isolated runtime failed")
	}
}
