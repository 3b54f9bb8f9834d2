package actor

import (
	"fmt"

	"github.com/markintheabyss/actorframe/internal/backoff"
	"github.com/markintheabyss/actorframe/internal/blockcache"
	"github.com/markintheabyss/actorframe/internal/directory"
	"github.com/markintheabyss/actorframe/internal/schedq"
	"github.com/markintheabyss/actorframe/internal/strpool"
)

// Framework is the unit of scheduling: a directory of actor mailboxes,
// a worker pool and scheduler, a fallback-handler slot, and a
// thread-safe message cache. Construct with NewFramework;
// Close quiesces and tears down its workers.
type Framework struct {
	runtime *Runtime
	pool    strpool.Ref

	index uint32
	name  *strpool.Name

	mailboxes *directory.Directory[*mailbox]

	sched *scheduler

	fallback    slotHandler
	sharedCache *blockcache.Cache
	sharedCtx   *mailboxContext
}

// defaultFallbackHandler silently drops an undeliverable message: not
// an error to the sender, it exists only so an
// unconfigured Framework doesn't need a nil check on every send.
func defaultFallbackHandler(data []byte, size int, from Address) {}

// NewFramework constructs and starts a Framework: it registers with a
// Runtime (DefaultRuntime unless WithRuntime is given), synthesizes a
// name if none was given, and starts its worker pool at the configured
// thread count (default 16).
func NewFramework(opts ...Option) *Framework {
	o := defaultFrameworkOptions()
	for _, opt := range opts {
		opt(&o)
	}

	rt := o.runtime
	if rt == nil {
		rt = DefaultRuntime()
	}

	f := &Framework{
		runtime:   rt,
		pool:      strpool.Acquire(),
		mailboxes: directory.New[*mailbox](),
	}

	f.index = rt.frameworks.Allocate(0)

	name := o.name
	if name == "" {
		name = fmt.Sprintf("%x", f.index)
	}
	f.name = f.pool.Intern(name)

	entry := rt.frameworks.GetEntry(f.index)
	entry.Lock()
	entry.SetEntity(f)
	entry.Unlock()

	SetFallbackHandlerBlind(f, defaultFallbackHandler)

	f.sharedCache = blockcache.NewShared(blockcache.DefaultAllocator{})
	f.sharedCtx = &mailboxContext{
		schedCtx: schedq.NewSharedContext[*mailbox](),
		cache:    f.sharedCache,
		fallback: &f.fallback,
	}

	f.sched = newScheduler(f)
	f.sched.start(o.threadCount)

	return f
}

// Close quiesces the framework's queues, stops its workers, and
// deregisters it from its Runtime.
func (f *Framework) Close() {
	f.sched.release()
	f.runtime.frameworks.Deregister(f.index)
	f.pool.Release()
}

// Name returns the framework's interned name.
func (f *Framework) Name() string { return f.name.String() }

func (f *Framework) registerActor(a *Actor, name string) {
	mb := newMailbox()
	idx := f.mailboxes.Allocate(0)

	mailboxName := name
	if mailboxName == "" {
		mailboxName = fmt.Sprintf("%x.%s", idx, f.name.String())
	}
	interned := f.pool.Intern(mailboxName)

	mb.Lock()
	mb.SetName(interned)
	mb.RegisterActor(a)
	mb.Unlock()

	entry := f.mailboxes.GetEntry(idx)
	entry.Lock()
	entry.SetEntity(mb)
	entry.Unlock()

	a.framework = f
	a.mb = mb
	a.address = newAddress(interned, packIndex(uint16(f.index), idx))
}

// deregisterActor busy-spins until no in-flight dispatch holds a's
// mailbox pinned, then clears the actor pointer — mirroring
// directory.Directory.Deregister's pin-wait so a concurrent
// scheduler.process can't run a handler against a partially-torn-down
// actor.
func (f *Framework) deregisterActor(a *Actor) {
	var attempt uint32
	for {
		a.mb.Lock()
		if !a.mb.IsPinned() {
			a.mb.DeregisterActor()
			a.mb.Unlock()
			return
		}
		a.mb.Unlock()
		backoff.Wait(attempt)
		attempt++
	}
}

// sendLocal pushes env onto the mailbox at mailboxIndex within f,
// scheduling it if this push transitions it from empty to non-empty.
// Reports whether the mailbox exists.
func (f *Framework) sendLocal(ctx *mailboxContext, env *envelope, mailboxIndex uint32) bool {
	entry := f.mailboxes.GetEntry(mailboxIndex)
	if entry == nil {
		return false
	}

	mb, ok := entry.GetEntity()
	if !ok {
		return false
	}

	mb.Lock()
	wasEmpty := mb.Push(env)
	if wasEmpty {
		f.sched.schedule(ctx, mb)
	}
	mb.Unlock()

	return true
}

// frameworkReceive is the cross-framework delivery entry point called
// on the target framework by deliverAcrossProcess: it always uses the
// target's own shared context, since the calling goroutine belongs to
// a different framework's worker.
func (f *Framework) frameworkReceive(env *envelope, to Index) bool {
	return f.sendLocal(f.sharedCtx, env, to.Mailbox())
}

// deliverAcrossProcess resolves idx through the runtime's global
// framework/receiver directories with pin-protected lookup, so a
// concurrent framework or receiver teardown can't free the entry out
// from under a delivery in flight.
func (f *Framework) deliverAcrossProcess(env *envelope, idx Index) bool {
	if idx.Framework() == 0 {
		entry := f.runtime.receivers.GetEntry(idx.Mailbox())
		if entry == nil {
			return false
		}

		entry.Lock()
		entry.Pin()
		r, ok := entry.GetEntity()
		entry.Unlock()

		delivered := ok
		if ok {
			r.push(env)
		}

		entry.Lock()
		entry.Unpin()
		entry.Unlock()
		return delivered
	}

	entry := f.runtime.frameworks.GetEntry(uint32(idx.Framework()))
	if entry == nil {
		return false
	}

	entry.Lock()
	entry.Pin()
	target, ok := entry.GetEntity()
	entry.Unlock()

	delivered := false
	if ok {
		delivered = target.frameworkReceive(env, idx)
	}

	entry.Lock()
	entry.Unpin()
	entry.Unlock()
	return delivered
}

// sendInternal delivers locally
// if to addresses this framework, else across the process via the
// global directories, else invoke the framework fallback handler and
// destroy the envelope.
func (f *Framework) sendInternal(ctx *mailboxContext, env *envelope, to Address) bool {
	idx := to.Index()

	if uint32(idx.Framework()) == f.index {
		if f.sendLocal(ctx, env, idx.Mailbox()) {
			return true
		}
	} else if f.deliverAcrossProcess(env, idx) {
		return true
	}

	f.fallback.Handle(env, ctx)
	env.destroy()
	return false
}

// Send delivers value to to as if sent from from, using f's
// thread-safe shared envelope cache.
func Send[V any](f *Framework, value V, from, to Address) bool {
	env := newEnvelope(from, value)
	return f.sendInternal(f.sharedCtx, env, to)
}

// SetFallbackHandler installs f's typed fallback handler, invoked with
// the boxed payload when an incoming envelope can't be delivered to
// any actor.
func SetFallbackHandler[V any](f *Framework, handler func(V, Address)) {
	f.fallback.Set(&messageHandler{
		call: func(env *envelope, _ *mailboxContext) bool {
			v, ok := env.payload.(V)
			if !ok {
				return false
			}
			handler(v, env.from)
			return true
		},
	})
}

// SetFallbackHandlerBlind installs f's fallback handler in blind form.
func SetFallbackHandlerBlind(f *Framework, handler func(data []byte, size int, from Address)) {
	f.fallback.Set(&messageHandler{
		call: func(env *envelope, ctx *mailboxContext) bool {
			data, size := env.blindBytes(ctx.cache)
			handler(data, size, env.from)
			return true
		},
	})
}

// SetMaxThreads/SetMinThreads/GetMaxThreads/GetMinThreads/
// GetNumThreads/GetPeakThreads delegate to the scheduler's worker pool.
func (f *Framework) SetMaxThreads(n uint32) { f.sched.pool.SetMaxThreads(n) }
func (f *Framework) SetMinThreads(n uint32) { f.sched.pool.SetMinThreads(n) }
func (f *Framework) GetMaxThreads() uint32  { return f.sched.pool.GetMaxThreads() }
func (f *Framework) GetMinThreads() uint32  { return f.sched.pool.GetMinThreads() }
func (f *Framework) GetNumThreads() uint32  { return f.sched.pool.NumThreads() }
func (f *Framework) GetPeakThreads() uint32 { return f.sched.pool.PeakThreads() }

// GetNumCounters returns the number of distinct counters tracked.
func (f *Framework) GetNumCounters() int { return NumCounters }

// GetCounterName returns the stable name of counter i.
func (f *Framework) GetCounterName(i int) string { return GetCounterName(i) }

// GetCounterValue returns the process-wide (shared + all worker
// contexts) total for counter i.
func (f *Framework) GetCounterValue(i int) uint32 { return f.sched.counterValue(i) }

// GetPerThreadCounterValues fills up to max values of counter i: the
// shared context's value first, then each running worker's.
func (f *Framework) GetPerThreadCounterValues(i, max int) []uint32 {
	return f.sched.perThreadCounterValues(i, max)
}

// ResetCounters zeroes every counter in every context.
func (f *Framework) ResetCounters() { f.sched.resetCounters() }
