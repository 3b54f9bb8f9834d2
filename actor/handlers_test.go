package actor

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(id uintptr) *messageHandler {
	return &messageHandler{identity: id}
}

func TestHandlerCollectionAddIsPendingUntilHandle(t *testing.T) {
	c := newHandlerCollection()
	h := newTestHandler(1)
	c.Add(h)

	assert.True(t, c.Contains(1))

	ctx := &mailboxContext{}
	env := &envelope{goType: reflect.TypeOf(0)}
	h.call = func(*envelope, *mailboxContext) bool { return true }
	h.goType = env.goType

	assert.True(t, c.Handle(env, ctx))
}

func TestHandlerCollectionRemoveMarksAllMatches(t *testing.T) {
	c := newHandlerCollection()
	h1 := newTestHandler(5)
	h2 := newTestHandler(5)
	c.Add(h1)
	c.Add(h2)

	require.True(t, c.Remove(5))
	assert.False(t, c.Contains(5))
	assert.False(t, c.Remove(5), "nothing left to remove")
}

func TestHandlerCollectionUpdateSweepsMarkedAndPromotesPending(t *testing.T) {
	c := newHandlerCollection()
	h1 := newTestHandler(1)
	c.Add(h1)

	ctx := &mailboxContext{}
	goType := reflect.TypeOf("")
	env := &envelope{goType: goType}
	h1.goType = goType
	h1.call = func(*envelope, *mailboxContext) bool { return true }

	assert.True(t, c.Handle(env, ctx))

	c.Remove(1)
	h2 := newTestHandler(2)
	h2.goType = goType
	h2.call = func(*envelope, *mailboxContext) bool { return true }
	c.Add(h2)

	assert.True(t, c.Handle(env, ctx))
	assert.False(t, c.Contains(1))
	assert.True(t, c.Contains(2))
}

func TestHandlerCollectionHandleReportsFalseWhenNothingMatches(t *testing.T) {
	c := newHandlerCollection()
	h := newTestHandler(1)
	h.goType = reflect.TypeOf(0)
	h.call = func(*envelope, *mailboxContext) bool { return true }
	c.Add(h)

	ctx := &mailboxContext{}
	env := &envelope{goType: reflect.TypeOf("")}

	assert.False(t, c.Handle(env, ctx))
}

func TestSlotHandlerSwapsAtNextHandleNotImmediately(t *testing.T) {
	s := &slotHandler{}
	called := false
	s.Set(&messageHandler{call: func(*envelope, *mailboxContext) bool {
		called = true
		return true
	}})

	assert.Nil(t, s.current, "Set must not take effect before the next Handle")

	ctx := &mailboxContext{}
	env := &envelope{}
	assert.True(t, s.Handle(env, ctx))
	assert.True(t, called)
}

func TestSlotHandlerClearedByNilSet(t *testing.T) {
	s := &slotHandler{}
	s.Set(&messageHandler{call: func(*envelope, *mailboxContext) bool { return true }})
	ctx := &mailboxContext{}
	env := &envelope{}
	require.True(t, s.Handle(env, ctx))

	s.Set(nil)
	assert.False(t, s.Handle(env, ctx))
}
