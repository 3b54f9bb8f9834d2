// Package schedq implements the scheduler's mailbox queue: the core
// scheduling primitive. Each framework owns one Queue.
// Each worker has a Context holding a single-slot local queue and
// per-context counters; the Queue additionally owns a shared FIFO of
// mailboxes guarded by a mutex/condition-variable monitor.
package schedq

import (
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"
)

// Counter identifiers, in a stable order.
const (
	CounterMessagesProcessed = iota
	CounterYields
	CounterLocalPushes
	CounterSharedPushes
	CounterMailboxQueueMax
	CounterQueueLatencyLocalMin
	CounterQueueLatencyLocalMax
	CounterQueueLatencySharedMin
	CounterQueueLatencySharedMax
	MaxCounters
)

// Hints carries the queuing-policy inputs the scheduler computes
// before calling Push: whether this push represents a sent message
// (as opposed to the sending mailbox being rescheduled after
// processing), the handler's predicted/actual send counts, and the
// sending mailbox's current message count.
type Hints struct {
	Send               bool
	PredictedSendCount uint32
	SendIndex          uint32
	MessageCount       int
}

// Context is a per-goroutine (per-worker, or the shared non-worker)
// handle into the Queue. The local slot is touched only by its owning
// goroutine, but counters are read from arbitrary goroutines (a
// Framework's GetCounterValue/ResetCounters) while Push/Pop run
// concurrently — and the shared context's Push is itself called
// concurrently by every non-worker Send — so counters are atomic.
type Context[M comparable] struct {
	running  bool
	shared   bool
	local    M
	hasLocal bool
	counters [MaxCounters]atomic.Uint32

	// LatencyFn returns microseconds elapsed since mailbox m was
	// timestamped, for the queue-latency counters. Optional; if nil,
	// latency counters stay at their initial values.
	LatencyFn func(m M) uint32
	// CountFn returns the current queue depth of mailbox m, used to
	// update the mailbox-queue-max counter on Push. Optional.
	CountFn func(m M) int
}

// Queue is the scheduling primitive: a per-worker local slot plus a
// shared FIFO, with Push choosing between them per Hints and Pop
// draining the local slot before blocking on the shared FIFO.
type Queue[M comparable] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	shared deque.Deque[M]
}

// New returns an empty Queue.
func New[M comparable]() *Queue[M] {
	q := &Queue[M]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// NewSharedContext returns a Context marked as the non-worker shared
// context: it has no local slot and is only ever used to Push.
func NewSharedContext[M comparable]() *Context[M] {
	return &Context[M]{shared: true}
}

// NewWorkerContext returns a Context for a worker goroutine, with its
// minimum latency counters initialized to the maximum uint32 value so
// the first observed sample always lowers them.
func NewWorkerContext[M comparable]() *Context[M] {
	c := &Context[M]{running: true}
	c.counters[CounterQueueLatencyLocalMin].Store(^uint32(0))
	c.counters[CounterQueueLatencySharedMin].Store(^uint32(0))
	return c
}

// Release marks a worker context as no longer running; the worker
// loop observes this the next time it wakes from Pop.
func (q *Queue[M]) Release(ctx *Context[M]) {
	q.mu.Lock()
	ctx.running = false
	q.mu.Unlock()
}

// WakeAll wakes every goroutine blocked in Pop, so they can observe a
// Release or a new item.
func (q *Queue[M]) WakeAll() {
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Running reports whether ctx's worker is still enabled.
func (q *Queue[M]) Running(ctx *Context[M]) bool {
	return ctx.running
}

// Empty reports whether a call to Pop would currently return nothing.
func (q *Queue[M]) Empty(ctx *Context[M]) bool {
	if !ctx.shared && ctx.hasLocal {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shared.Len() == 0
}

// ResetCounter zeroes the given counter in ctx, restoring the
// max-as-zero / min-as-max-uint32 convention for latency counters.
func (q *Queue[M]) ResetCounter(ctx *Context[M], counter int) {
	switch counter {
	case CounterQueueLatencyLocalMin, CounterQueueLatencySharedMin:
		ctx.counters[counter].Store(^uint32(0))
	default:
		ctx.counters[counter].Store(0)
	}
}

// CounterValue reads the given counter from ctx.
func (q *Queue[M]) CounterValue(ctx *Context[M], counter int) uint32 {
	return ctx.counters[counter].Load()
}

// raise atomically sets *v to candidate if that would increase it.
func raise(v *atomic.Uint32, candidate uint32) {
	for {
		cur := v.Load()
		if candidate <= cur {
			return
		}
		if v.CompareAndSwap(cur, candidate) {
			return
		}
	}
}

// lower atomically sets *v to candidate if that would decrease it.
func lower(v *atomic.Uint32, candidate uint32) {
	for {
		cur := v.Load()
		if candidate >= cur {
			return
		}
		if v.CompareAndSwap(cur, candidate) {
			return
		}
	}
}

// Push enqueues mailbox for processing, choosing between the calling
// context's local slot and the shared FIFO: the shared context always
// uses the shared FIFO; a worker context prefers its local slot unless
// hints indicate this send isn't predicted to be the handler's last,
// or the sending mailbox still has queued work of its own.
func (q *Queue[M]) Push(ctx *Context[M], mailbox M, hints Hints) {
	if ctx.CountFn != nil {
		raise(&ctx.counters[CounterMailboxQueueMax], uint32(ctx.CountFn(mailbox)))
	}

	if preferLocal(ctx, hints) {
		previous := ctx.local
		hadPrevious := ctx.hasLocal

		ctx.local = mailbox
		ctx.hasLocal = true
		ctx.counters[CounterLocalPushes].Add(1)

		if !hadPrevious {
			return
		}

		// Demote the previously local mailbox to the shared queue —
		// only the handler's tail send stays thread-local.
		mailbox = previous
	}

	q.mu.Lock()
	q.shared.PushBack(mailbox)
	q.cond.Signal()
	q.mu.Unlock()

	ctx.counters[CounterSharedPushes].Add(1)
}

func preferLocal[M comparable](ctx *Context[M], hints Hints) bool {
	if ctx.shared {
		return false
	}

	if hints.Send {
		if hints.SendIndex+1 < hints.PredictedSendCount {
			return false
		}
		if hints.MessageCount > 1 {
			return false
		}
	}

	return true
}

// Pop removes and returns a mailbox for processing, preferring the
// calling context's local slot, then blocking on the shared FIFO
// until one is available or the context is released (in which case
// the zero value is returned to signal shutdown).
func (q *Queue[M]) Pop(ctx *Context[M]) (M, bool) {
	var zero M

	if ctx.hasLocal {
		m := ctx.local
		ctx.local = zero
		ctx.hasLocal = false
		q.recordPop(ctx, CounterQueueLatencyLocalMin, CounterQueueLatencyLocalMax, m)
		return m, true
	}

	q.mu.Lock()
	for q.shared.Len() == 0 && ctx.running {
		ctx.counters[CounterYields].Add(1)
		q.cond.Wait()
	}

	var m M
	ok := false
	if q.shared.Len() > 0 {
		m = q.shared.PopFront()
		ok = true
	}
	q.mu.Unlock()

	if ok {
		q.recordPop(ctx, CounterQueueLatencySharedMin, CounterQueueLatencySharedMax, m)
	}

	return m, ok
}

func (q *Queue[M]) recordPop(ctx *Context[M], minCounter, maxCounter int, m M) {
	ctx.counters[CounterMessagesProcessed].Add(1)

	if ctx.LatencyFn == nil {
		return
	}

	us := ctx.LatencyFn(m)
	raise(&ctx.counters[maxCounter], us)
	lower(&ctx.counters[minCounter], us)
}
