package actor

import (
	"reflect"
)

// Actor is an addressable unit of computation with private state, a
// mailbox, and registered handlers: it never runs more than one
// message at a time. Client code
// embeds *Actor or holds one alongside its own state; handlers are
// registered with the package-level RegisterHandler function since Go
// disallows generic methods.
type Actor struct {
	framework *Framework
	address   Address
	mb        *mailbox

	handlers *handlerCollection
	defaultH slotHandler

	// mailboxCtx is non-nil only for the duration of processMessage,
	// letting ActorSend pick the calling worker's envelope cache
	// instead of the framework's shared one.
	mailboxCtx *mailboxContext
}

// NewActor constructs an Actor registered with f. If name is omitted,
// one is synthesized from the mailbox index and framework name
// if unset.
func NewActor(f *Framework, name ...string) *Actor {
	a := &Actor{handlers: newHandlerCollection()}

	n := ""
	if len(name) > 0 {
		n = name[0]
	}
	f.registerActor(a, n)
	return a
}

// Close deregisters a from its framework. The mailbox itself is not
// freed — any messages still queued for it are routed to the
// framework fallback handler.
func (a *Actor) Close() {
	a.framework.deregisterActor(a)
}

// GetAddress returns the actor's mailbox address.
func (a *Actor) GetAddress() Address { return a.address }

// GetFramework returns the framework this actor is registered with.
func (a *Actor) GetFramework() *Framework { return a.framework }

// GetNumQueuedMessages returns the actor's mailbox depth.
func (a *Actor) GetNumQueuedMessages() int {
	a.mb.Lock()
	defer a.mb.Unlock()
	return a.mb.Count()
}

// RegisterHandler registers handler for payload type V on a. Multiple
// handlers may be registered per type; all matching handlers run on
// dispatch.
func RegisterHandler[V any](a *Actor, handler func(V, Address)) {
	h := &messageHandler{
		name:     typeKeyFor[V](),
		goType:   reflect.TypeOf((*V)(nil)).Elem(),
		identity: handlerIdentity(handler),
		call: func(env *envelope, _ *mailboxContext) bool {
			v, ok := env.payload.(V)
			if !ok {
				return false
			}
			handler(v, env.from)
			return true
		},
	}
	a.handlers.Add(h)
}

// DeregisterHandler removes every registration of handler for V,
// reporting whether any matched. Registering the same handler twice
// then deregistering once removes both.
func DeregisterHandler[V any](a *Actor, handler func(V, Address)) bool {
	return a.handlers.Remove(handlerIdentity(handler))
}

// IsHandlerRegistered reports whether handler is currently registered
// (accounting for deferred adds/removes not yet applied).
func IsHandlerRegistered[V any](a *Actor, handler func(V, Address)) bool {
	return a.handlers.Contains(handlerIdentity(handler))
}

// SetDefaultHandler installs a's default handler, invoked with the
// boxed payload when no message handler matched. A nil-equivalent
// clear isn't exposed; register a no-op to silence it.
func SetDefaultHandler(a *Actor, handler func(payload any, from Address)) {
	a.defaultH.Set(&messageHandler{
		call: func(env *envelope, _ *mailboxContext) bool {
			handler(env.payload, env.from)
			return true
		},
	})
}

// SetDefaultHandlerBlind installs a's default handler in blind form:
// invoked with the envelope's encoded bytes and size rather than the
// typed payload.
func SetDefaultHandlerBlind(a *Actor, handler func(data []byte, size int, from Address)) {
	a.defaultH.Set(&messageHandler{
		call: func(env *envelope, ctx *mailboxContext) bool {
			data, size := env.blindBytes(ctx.cache)
			handler(data, size, env.from)
			return true
		},
	})
}

// ActorSend delivers value to to as if sent from a, using the calling
// worker's envelope cache if a is mid-dispatch on one, else the
// framework's shared cache.
func ActorSend[V any](a *Actor, value V, to Address) bool {
	env := newEnvelope(a.address, value)

	ctx := a.mailboxCtx
	if ctx == nil {
		ctx = a.framework.sharedCtx
	}

	return a.framework.sendInternal(ctx, env, to)
}

// processMessage runs env through a's handler collection, falling
// back to a's default handler and then the framework fallback handler
// if nothing matched: the actor's own default handler always gets
// first refusal, and the framework's only runs if that one doesn't.
func (a *Actor) processMessage(ctx *mailboxContext, env *envelope) {
	a.mailboxCtx = ctx
	defer func() { a.mailboxCtx = nil }()

	if a.handlers.Handle(env, ctx) {
		return
	}

	if a.defaultH.Handle(env, ctx) {
		return
	}

	if ctx.fallback != nil {
		ctx.fallback.Handle(env, ctx)
	}
}
