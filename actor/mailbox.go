package actor

import (
	"time"

	"github.com/gammazero/deque"
	"github.com/markintheabyss/actorframe/internal/rtsync"
	"github.com/markintheabyss/actorframe/internal/strpool"
)

// mailbox is a per-actor FIFO of envelopes guarded by a spin lock.
// Callers must hold the lock for every field access; the invariant
// "enqueued in exactly one scheduler queue iff non-empty" is enforced
// by callers (Framework.sendLocal reading Push's return value, and
// scheduler.process checking Empty after Pop) rather than by the
// mailbox itself.
type mailbox struct {
	lock rtsync.SpinLock

	name  *strpool.Name
	queue deque.Deque[*envelope]

	actor    *Actor
	pinCount uint32

	enqueuedAt time.Time
}

func newMailbox() *mailbox { return &mailbox{} }

func (m *mailbox) Lock()   { m.lock.Lock() }
func (m *mailbox) Unlock() { m.lock.Unlock() }

// Push appends env to the FIFO and reports whether this push
// transitioned the mailbox from empty to non-empty — the caller's cue
// to schedule it. Caller must hold the lock.
func (m *mailbox) Push(env *envelope) (wasEmpty bool) {
	wasEmpty = m.queue.Len() == 0
	if wasEmpty {
		m.enqueuedAt = rtsync.Now()
	}
	m.queue.PushBack(env)
	return wasEmpty
}

// Pop removes and returns the front envelope, or nil if empty. Caller
// must hold the lock.
func (m *mailbox) Pop() *envelope {
	if m.queue.Len() == 0 {
		return nil
	}
	env := m.queue.PopFront()
	if m.queue.Len() > 0 {
		m.enqueuedAt = rtsync.Now()
	}
	return env
}

// Front returns the front envelope without removing it, or nil if
// empty. Caller must hold the lock.
func (m *mailbox) Front() *envelope {
	if m.queue.Len() == 0 {
		return nil
	}
	return m.queue.Front()
}

// Empty reports whether the FIFO currently holds no envelopes. Caller
// must hold the lock.
func (m *mailbox) Empty() bool { return m.queue.Len() == 0 }

// Count returns the number of queued envelopes. Caller must hold the
// lock.
func (m *mailbox) Count() int { return m.queue.Len() }

// SetName records the mailbox's interned name. Caller must hold the lock.
func (m *mailbox) SetName(name *strpool.Name) { m.name = name }

// Name returns the mailbox's interned name.
func (m *mailbox) Name() *strpool.Name { return m.name }

// RegisterActor/DeregisterActor set or clear the mailbox's back-
// pointer. Caller must hold the lock. A nil actor means messages still
// queued here route to the framework fallback handler.
func (m *mailbox) RegisterActor(a *Actor) { m.actor = a }
func (m *mailbox) DeregisterActor()       { m.actor = nil }
func (m *mailbox) Actor() *Actor          { return m.actor }

// Pin/Unpin/IsPinned mirror directory.Entry's pinning protocol,
// applied here to the registered actor pointer rather than a directory
// slot. Caller must hold the lock.
func (m *mailbox) Pin()           { m.pinCount++ }
func (m *mailbox) Unpin()         { m.pinCount-- }
func (m *mailbox) IsPinned() bool { return m.pinCount > 0 }

// latencyMicros returns microseconds elapsed since the mailbox last
// became runnable (a Push into an empty mailbox, or a Pop that left it
// non-empty), feeding the scheduler queue's latency counters.
func (m *mailbox) latencyMicros() uint32 {
	return rtsync.MicrosSince(m.enqueuedAt)
}
