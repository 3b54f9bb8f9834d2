package actor

import (
	"reflect"

	"github.com/markintheabyss/actorframe/internal/container"
	"github.com/markintheabyss/actorframe/internal/strpool"
)

// messageHandler is one registered handler: a dispatch key (either a
// stable interned name or a reflect.Type fallback), an identity used
// for deregistration, and the closure that performs the type-asserted
// call. identity is the handler func's code pointer, used as a
// pointer-equality stand-in for comparing two handler values.
type messageHandler struct {
	name   *strpool.Name
	goType reflect.Type

	identity uintptr
	call     func(env *envelope, ctx *mailboxContext) bool

	marked bool

	// predictedSendCount is this handler's send-count prediction,
	// recorded by mailboxContext.endHandler after each invocation and
	// consumed by mailboxContext.beginHandler before the next.
	predictedSendCount uint32
}

func handlerIdentity(handler any) uintptr {
	return reflect.ValueOf(handler).Pointer()
}

// matches reports whether h is eligible to receive env, comparing by
// interned name if either side has one, else by reflect.Type. Because
// both envelope and handler obtain their key from the same typeKeyFor
// call, a type's named/unnamed choice can never disagree between the
// two sides — "mixed use" is prevented by construction rather than
// checked here.
func (h *messageHandler) matches(env *envelope) bool {
	if h.name != nil || env.name != nil {
		return h.name == env.name
	}
	return h.goType == env.goType
}

// handlerCollection holds an actor's message handlers — zero or more,
// multi-dispatch on payload type — with the deferred two-list
// add/mark-and-sweep edit protocol: Add/Remove never
// touch the live list directly, so a handler running mid-dispatch can
// safely register or deregister handlers on its own actor without
// racing the dispatcher that is iterating it.
type handlerCollection struct {
	live    *container.List[*messageHandler]
	pending *container.List[*messageHandler]
	dirty   bool
}

func newHandlerCollection() *handlerCollection {
	return &handlerCollection{
		live:    container.NewList[*messageHandler](),
		pending: container.NewList[*messageHandler](),
	}
}

// Add inserts handler into the pending list; it becomes live at the
// next Handle call.
func (c *handlerCollection) Add(h *messageHandler) {
	c.pending.Insert(h)
	c.dirty = true
}

// Remove marks every live or pending, not-yet-marked handler matching
// identity for removal at the next Handle call, reporting whether any
// matched.
func (c *handlerCollection) Remove(identity uintptr) bool {
	found := false
	for _, list := range [...]*container.List[*messageHandler]{c.live, c.pending} {
		it := list.GetIterator()
		for it.Next() {
			h := it.Get()
			if h.identity == identity && !h.marked {
				h.marked = true
				found = true
			}
		}
	}
	if found {
		c.dirty = true
	}
	return found
}

// Contains reports whether a live or pending, unmarked handler matches
// identity.
func (c *handlerCollection) Contains(identity uintptr) bool {
	for _, list := range [...]*container.List[*messageHandler]{c.live, c.pending} {
		it := list.GetIterator()
		for it.Next() {
			if h := it.Get(); h.identity == identity && !h.marked {
				return true
			}
		}
	}
	return false
}

// update promotes pending handlers into live and sweeps marked entries
// out of live. Run lazily at the start of Handle when dirty.
func (c *handlerCollection) update() {
	if !c.dirty {
		return
	}

	var promoted []*messageHandler
	it := c.pending.GetIterator()
	for it.Next() {
		promoted = append(promoted, it.Get())
	}
	for _, h := range promoted {
		c.pending.Remove(h)
		if !h.marked {
			c.live.Insert(h)
		}
	}

	var swept []*messageHandler
	it = c.live.GetIterator()
	for it.Next() {
		if h := it.Get(); h.marked {
			swept = append(swept, h)
		}
	}
	for _, h := range swept {
		c.live.Remove(h)
	}

	c.dirty = false
}

// Handle runs update-if-dirty, then dispatches env to every matching
// live handler, recording predicted-send-count bookkeeping around each
// call, and reports whether any handler matched.
func (c *handlerCollection) Handle(env *envelope, ctx *mailboxContext) bool {
	c.update()

	handled := false
	it := c.live.GetIterator()
	for it.Next() {
		h := it.Get()
		if !h.matches(env) {
			continue
		}

		ctx.beginHandler(h)
		ok := h.call(env, ctx)
		ctx.endHandler(h)

		if ok {
			handled = true
		}
	}
	return handled
}

// slotHandler is the two-slot (current, pending) handler form used for
// default and fallback handlers: at most one handler, swapped in at
// the next dispatch rather than immediately, for the same self-edit-
// race reason as handlerCollection.
type slotHandler struct {
	current *messageHandler
	pending *messageHandler
	set     bool
	dirty   bool
}

// Set replaces the handler, effective at the next Handle call. A nil
// handler clears it, matching "SetFallbackHandler(null)".
func (s *slotHandler) Set(h *messageHandler) {
	s.pending = h
	s.set = true
	s.dirty = true
}

func (s *slotHandler) update() {
	if !s.dirty {
		return
	}
	if s.set {
		s.current = s.pending
	}
	s.pending = nil
	s.set = false
	s.dirty = false
}

// Handle runs update-if-dirty then invokes the current handler if set,
// reporting whether it ran.
func (s *slotHandler) Handle(env *envelope, ctx *mailboxContext) bool {
	s.update()
	if s.current == nil {
		return false
	}
	return s.current.call(env, ctx)
}
