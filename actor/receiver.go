package actor

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/markintheabyss/actorframe/internal/strpool"
)

// receiverHandler is a registered typed handler on a Receiver,
// identified for deregistration by its closure's code pointer, same
// as actor message handlers.
type receiverHandler struct {
	identity uintptr
	call     func(env *envelope) bool
}

// Receiver is a non-worker endpoint: a pseudo-actor with framework
// index zero, used by client code to block-receive replies. Unlike an
// actor's handler collection, Push dispatches to
// every registered handler unconditionally — each handler no-ops
// internally on a payload type mismatch — and handlers are never
// edited from inside a Push, so no deferred two-list protocol is
// needed here.
type Receiver struct {
	runtime *Runtime
	pool    strpool.Ref
	address Address

	mu       sync.Mutex
	cond     *sync.Cond
	handlers []*receiverHandler
	count    uint64
	consumed uint64
}

// NewReceiver constructs and registers a Receiver against rt, or
// DefaultRuntime if rt is nil.
func NewReceiver(rt *Runtime, name ...string) *Receiver {
	if rt == nil {
		rt = DefaultRuntime()
	}

	r := &Receiver{runtime: rt, pool: strpool.Acquire()}
	r.cond = sync.NewCond(&r.mu)

	idx := rt.receivers.Allocate(0)

	n := ""
	if len(name) > 0 {
		n = name[0]
	}
	if n == "" {
		n = fmt.Sprintf("%x", idx)
	}
	r.address = newAddress(r.pool.Intern(n), packIndex(0, idx))

	entry := rt.receivers.GetEntry(idx)
	entry.Lock()
	entry.SetEntity(r)
	entry.Unlock()

	return r
}

// GetAddress returns the receiver's address.
func (r *Receiver) GetAddress() Address { return r.address }

// Close deregisters r from its runtime, busy-spinning on the
// directory entry's pin the same way Framework.Close's teardown does,
// so a concurrent deliverAcrossProcess can't push into a freed
// Receiver.
func (r *Receiver) Close() {
	r.runtime.receivers.Deregister(r.address.Index().Mailbox())
	r.pool.Release()
}

// RegisterReceiverHandler adds a typed handler, dispatched on every
// Push whose payload matches V.
func RegisterReceiverHandler[V any](r *Receiver, handler func(V, Address)) {
	h := &receiverHandler{
		identity: reflect.ValueOf(handler).Pointer(),
		call: func(env *envelope) bool {
			v, ok := env.payload.(V)
			if !ok {
				return false
			}
			handler(v, env.from)
			return true
		},
	}

	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	r.mu.Unlock()
}

// DeregisterReceiverHandler removes a previously registered handler,
// reporting whether one matched.
func DeregisterReceiverHandler[V any](r *Receiver, handler func(V, Address)) bool {
	identity := reflect.ValueOf(handler).Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, h := range r.handlers {
		if h.identity == identity {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// push dispatches env to every registered handler, records the
// arrival, and wakes any blocked waiters. Called only by Framework's
// cross-process delivery path.
func (r *Receiver) push(env *envelope) {
	r.mu.Lock()
	for _, h := range r.handlers {
		h.call(env)
	}
	r.count++
	r.cond.Broadcast()
	r.mu.Unlock()

	env.destroy()
}

// Count returns the number of messages received but not yet consumed
// via Wait/Consume.
func (r *Receiver) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count - r.consumed
}

// Reset zeroes the received/consumed counters.
func (r *Receiver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = 0
	r.consumed = 0
}

// Wait blocks until at least one message has arrived, then consumes up
// to max (default 1), returning the number actually consumed.
func (r *Receiver) Wait(max uint64) uint64 {
	if max == 0 {
		max = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count-r.consumed == 0 {
		r.cond.Wait()
	}
	return r.consumeLocked(max)
}

// Consume consumes up to max already-arrived messages without
// waiting, returning the number actually consumed.
func (r *Receiver) Consume(max uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumeLocked(max)
}

func (r *Receiver) consumeLocked(max uint64) uint64 {
	available := r.count - r.consumed
	if available > max {
		available = max
	}
	r.consumed += available
	return available
}
