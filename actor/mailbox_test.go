package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMailboxPushReportsEmptyToNonEmptyTransition(t *testing.T) {
	mb := newMailbox()
	mb.Lock()
	defer mb.Unlock()

	assert.True(t, mb.Push(&envelope{}))
	assert.False(t, mb.Push(&envelope{}), "second push is no longer an empty-to-non-empty transition")
	assert.Equal(t, 2, mb.Count())
}

func TestMailboxPopFIFOOrder(t *testing.T) {
	mb := newMailbox()
	mb.Lock()
	defer mb.Unlock()

	first := &envelope{}
	second := &envelope{}
	mb.Push(first)
	mb.Push(second)

	assert.Same(t, first, mb.Pop())
	assert.Same(t, second, mb.Pop())
	assert.True(t, mb.Empty())
	assert.Nil(t, mb.Pop())
}

func TestMailboxFrontDoesNotRemove(t *testing.T) {
	mb := newMailbox()
	mb.Lock()
	defer mb.Unlock()

	env := &envelope{}
	mb.Push(env)

	assert.Same(t, env, mb.Front())
	assert.Equal(t, 1, mb.Count())
}

func TestMailboxActorRegistration(t *testing.T) {
	mb := newMailbox()
	mb.Lock()
	defer mb.Unlock()

	assert.Nil(t, mb.Actor())

	a := &Actor{}
	mb.RegisterActor(a)
	assert.Same(t, a, mb.Actor())

	mb.DeregisterActor()
	assert.Nil(t, mb.Actor())
}

func TestMailboxPinUnpin(t *testing.T) {
	mb := newMailbox()
	mb.Lock()
	defer mb.Unlock()

	assert.False(t, mb.IsPinned())
	mb.Pin()
	assert.True(t, mb.IsPinned())
	mb.Unpin()
	assert.False(t, mb.IsPinned())
}
