package actor

import (
	"sync"
	"time"

	"github.com/markintheabyss/actorframe/internal/blockcache"
	"github.com/markintheabyss/actorframe/internal/rtsync"
	"github.com/markintheabyss/actorframe/internal/schedq"
	"github.com/markintheabyss/actorframe/internal/workerpool"
)

// mailboxContext is the per-goroutine handle into a framework's
// scheduling state: the schedq.Context used for Push/Pop, the
// envelope cache to allocate blind byte views from, the framework
// fallback slot, and the send-count bookkeeping that beginHandler/
// endHandler maintain around each message-handler call. One exists per worker
// goroutine plus one shared instance used by non-worker Sends.
type mailboxContext struct {
	schedCtx *schedq.Context[*mailbox]
	cache    *blockcache.Cache
	fallback *slotHandler

	// mailbox is the mailbox currently being processed by this
	// context's worker (nil outside processMessage) — the "sending
	// mailbox" scheduler.schedule derives hints.Send from.
	mailbox            *mailbox
	predictedSendCount uint32
	sendCount          uint32
}

func (ctx *mailboxContext) beginHandler(h *messageHandler) {
	ctx.predictedSendCount = h.predictedSendCount
	ctx.sendCount = 0
}

func (ctx *mailboxContext) endHandler(h *messageHandler) {
	h.predictedSendCount = ctx.sendCount
}

// scheduler binds a framework's schedq.Queue to a workerpool.Pool: it
// owns the per-worker envelope caches and the pop→process→reschedule
// loop that drives message dispatch, keeping that domain logic out of
// the generic internal/schedq and internal/workerpool packages so
// they stay free of an import cycle back to actor.
type scheduler struct {
	f     *Framework
	queue *schedq.Queue[*mailbox]
	pool  *workerpool.Pool

	mu         sync.Mutex
	workerCtxs []*schedq.Context[*mailbox]
}

func newScheduler(f *Framework) *scheduler {
	s := &scheduler{f: f, queue: schedq.New[*mailbox]()}
	s.pool = workerpool.New(s.newWorker)
	return s
}

func (s *scheduler) start(threadCount uint32) { s.pool.Start(threadCount) }

// release busy-waits for every queue to drain, then tears down the
// worker pool.
func (s *scheduler) release() {
	for !s.quiesced() {
		time.Sleep(time.Millisecond)
	}
	s.pool.Release()
}

func (s *scheduler) quiesced() bool {
	s.mu.Lock()
	ctxs := append([]*schedq.Context[*mailbox](nil), s.workerCtxs...)
	s.mu.Unlock()

	if !s.queue.Empty(s.f.sharedCtx.schedCtx) {
		return false
	}
	for _, ctx := range ctxs {
		if !s.queue.Empty(ctx) {
			return false
		}
	}
	return true
}

// newWorker is the workerpool.NewWorkerFunc: it builds a fresh worker
// context and per-worker lock-free envelope cache, then returns the
// pop/process loop closure. A companion goroutine watches stop and
// flips the worker's schedq.Context to not-running plus wakes every
// waiter, since Pop blocks on the shared queue's condition variable
// and can't itself select on the workerpool's stop channel.
func (s *scheduler) newWorker() workerpool.WorkerFunc {
	ctx := schedq.NewWorkerContext[*mailbox]()
	ctx.LatencyFn = func(m *mailbox) uint32 { return m.latencyMicros() }
	ctx.CountFn = func(m *mailbox) int { return m.Count() }

	cache := blockcache.New(blockcache.DefaultAllocator{}, rtsync.NoLock{}, blockcache.DefaultPools, blockcache.DefaultBlocks)

	mctx := &mailboxContext{
		schedCtx: ctx,
		cache:    cache,
		fallback: &s.f.fallback,
	}

	s.mu.Lock()
	s.workerCtxs = append(s.workerCtxs, ctx)
	s.mu.Unlock()

	return func(stop <-chan struct{}) {
		go func() {
			<-stop
			s.queue.Release(ctx)
			s.queue.WakeAll()
		}()

		for {
			mb, ok := s.queue.Pop(ctx)
			if !ok {
				return
			}
			s.process(mctx, mb)
		}
	}
}

// schedule derives placement hints for mb — whether this push
// represents a received send versus the sending mailbox being
// rescheduled, the handler's predicted/actual send counts, and the
// sending mailbox's queue depth — and pushes mb onto ctx's queue.
func (s *scheduler) schedule(ctx *mailboxContext, mb *mailbox) {
	hints := schedq.Hints{
		Send:               ctx.mailbox != mb,
		PredictedSendCount: ctx.predictedSendCount,
		SendIndex:          ctx.sendCount,
	}
	if ctx.mailbox != nil {
		hints.MessageCount = ctx.mailbox.Count()
	}

	s.queue.Push(ctx.schedCtx, mb, hints)
	ctx.sendCount++
}

// process implements the mailbox processor: pin the
// mailbox, snapshot its actor and front envelope, run the message (or
// hand it to the framework fallback if the actor has been
// deregistered), then unpin/pop/reschedule atomically under the lock.
func (s *scheduler) process(ctx *mailboxContext, mb *mailbox) {
	mb.Lock()
	mb.Pin()
	act := mb.Actor()
	env := mb.Front()
	mb.Unlock()

	ctx.mailbox = mb

	if env != nil {
		if act != nil {
			act.processMessage(ctx, env)
		} else {
			s.f.fallback.Handle(env, ctx)
		}
	}

	mb.Lock()
	mb.Unpin()
	mb.Pop()
	if !mb.Empty() {
		s.schedule(ctx, mb)
	}
	mb.Unlock()

	ctx.mailbox = nil

	if env != nil {
		env.destroy()
	}
}

func (s *scheduler) counterValue(counter int) uint32 {
	s.mu.Lock()
	ctxs := append([]*schedq.Context[*mailbox](nil), s.workerCtxs...)
	s.mu.Unlock()

	total := s.queue.CounterValue(s.f.sharedCtx.schedCtx, counter)
	for _, ctx := range ctxs {
		total += s.queue.CounterValue(ctx, counter)
	}
	return total
}

func (s *scheduler) perThreadCounterValues(counter, max int) []uint32 {
	if max <= 0 {
		return nil
	}

	s.mu.Lock()
	ctxs := append([]*schedq.Context[*mailbox](nil), s.workerCtxs...)
	s.mu.Unlock()

	values := make([]uint32, 0, max)
	values = append(values, s.queue.CounterValue(s.f.sharedCtx.schedCtx, counter))
	for _, ctx := range ctxs {
		if len(values) >= max {
			break
		}
		if !s.queue.Running(ctx) {
			continue
		}
		values = append(values, s.queue.CounterValue(ctx, counter))
	}
	return values
}

func (s *scheduler) resetCounters() {
	s.mu.Lock()
	ctxs := append([]*schedq.Context[*mailbox](nil), s.workerCtxs...)
	s.mu.Unlock()

	for c := 0; c < NumCounters; c++ {
		s.queue.ResetCounter(s.f.sharedCtx.schedCtx, c)
		for _, ctx := range ctxs {
			s.queue.ResetCounter(ctx, c)
		}
	}
}
