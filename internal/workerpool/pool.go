// Package workerpool implements a manager goroutine that grows or
// shrinks a population of worker goroutines toward a target count,
// started and stopped independently of the workers they drive.
//
// It deliberately knows nothing about mailboxes or messages — the
// domain-specific pop/process loop is supplied by the owner (the
// actor package's Framework) as a WorkerFunc factory, keeping this
// package reusable and free of an import cycle back to actor.
package workerpool

import (
	"sync"
	"time"
)

// WorkerFunc is a worker goroutine's main loop. It must return
// promptly once stop is closed.
type WorkerFunc func(stop <-chan struct{})

// NewWorkerFunc is called once per worker goroutine spawned, to let
// the owner construct any per-worker state (e.g. a lock-free envelope
// cache) before returning the loop to run with it captured.
type NewWorkerFunc func() WorkerFunc

const managerTick = 100 * time.Millisecond

type worker struct {
	stop chan struct{}
	done chan struct{}
}

// Pool manages a population of worker goroutines, growing or shrinking
// it toward a single target count on a background manager goroutine.
// SetMaxThreads and SetMinThreads both operate on that one target,
// only ever lowering or raising it respectively. There is no separate
// min/max bound: GetMaxThreads and GetMinThreads return the same
// value, and each setter overrides a ceiling or floor set earlier by
// the other.
type Pool struct {
	newWorker NewWorkerFunc

	mu      sync.Mutex
	workers []*worker
	target  uint32
	peak    uint32
	running bool
	wake    chan struct{}
	stopMgr chan struct{}
	mgrDone chan struct{}
}

// New returns a Pool that will spawn workers using newWorker.
func New(newWorker NewWorkerFunc) *Pool {
	return &Pool{
		newWorker: newWorker,
		wake:      make(chan struct{}, 1),
	}
}

// Start sets the initial thread count and launches the manager
// goroutine, busy-waiting until that many workers are running.
func (p *Pool) Start(threadCount uint32) {
	p.mu.Lock()
	p.target = threadCount
	p.running = true
	p.stopMgr = make(chan struct{})
	p.mgrDone = make(chan struct{})
	p.mu.Unlock()

	go p.manage()

	for p.NumThreads() < threadCount {
		time.Sleep(time.Millisecond)
	}
}

// Release drains the pool down to zero workers and stops the manager
// goroutine. Callers are responsible for ensuring all work queues are
// empty first. Unlike SetMinThreads/SetMaxThreads, which only ever
// raise or lower the target respectively, Release resets it to zero
// unconditionally — a full teardown, not a routine resize.
func (p *Pool) Release() {
	p.mu.Lock()
	p.target = 0
	p.mu.Unlock()
	p.nudge()

	for p.NumThreads() > 0 {
		time.Sleep(time.Millisecond)
	}

	p.mu.Lock()
	running := p.running
	p.running = false
	stopMgr := p.stopMgr
	mgrDone := p.mgrDone
	p.mu.Unlock()

	if running {
		close(stopMgr)
		<-mgrDone
	}
}

// SetMaxThreads lowers the target thread count; it only ever lowers
// it.
func (p *Pool) SetMaxThreads(count uint32) {
	p.mu.Lock()
	if p.target > count {
		p.target = count
	}
	p.mu.Unlock()
	p.nudge()
}

// SetMinThreads raises the target thread count; it only ever raises
// it.
func (p *Pool) SetMinThreads(count uint32) {
	p.mu.Lock()
	if p.target < count {
		p.target = count
	}
	p.mu.Unlock()
	p.nudge()
}

// GetMaxThreads returns the current target thread count.
func (p *Pool) GetMaxThreads() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// GetMinThreads returns the current target thread count.
func (p *Pool) GetMinThreads() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// NumThreads returns the number of currently running workers.
func (p *Pool) NumThreads() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint32(len(p.workers))
}

// PeakThreads returns the highest number of workers ever running at once.
func (p *Pool) PeakThreads() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

func (p *Pool) nudge() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// manage is the manager goroutine's loop: every tick (or on a nudge
// from SetMin/MaxThreads) it grows or shrinks the worker population
// toward the current target.
func (p *Pool) manage() {
	defer close(p.mgrDone)

	ticker := time.NewTicker(managerTick)
	defer ticker.Stop()

	for {
		p.reconcile()

		select {
		case <-p.stopMgr:
			return
		case <-ticker.C:
		case <-p.wake:
		}
	}
}

func (p *Pool) reconcile() {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := p.target

	for uint32(len(p.workers)) < target {
		w := &worker{stop: make(chan struct{}), done: make(chan struct{})}
		loop := p.newWorker()
		p.workers = append(p.workers, w)

		go func(w *worker, loop WorkerFunc) {
			defer close(w.done)
			loop(w.stop)
		}(w, loop)

		if uint32(len(p.workers)) > p.peak {
			p.peak = uint32(len(p.workers))
		}
	}

	for uint32(len(p.workers)) > target {
		last := len(p.workers) - 1
		w := p.workers[last]
		p.workers = p.workers[:last]

		close(w.stop)
		// The worker may be blocked waiting on the shared queue's
		// condition variable; the caller's WorkerFunc is responsible
		// for waking it (the actor package's schedq.Queue.WakeAll
		// does this whenever a worker is stopped).
		<-w.done
	}
}
