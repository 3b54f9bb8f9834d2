package directory

import (
	"fmt"

	"github.com/markintheabyss/actorframe/internal/rtsync"
)

// Entry is a single slot in a Directory: an entity pointer guarded by
// its own spin lock and a pin counter. Pin prevents concurrent
// deregistration of the entity while a reader holds a snapshot of it;
// SetEntity/Free are refused while the entry is pinned.
type Entry[T any] struct {
	lock     rtsync.SpinLock
	entity   T
	has      bool
	pinCount uint32
}

// Lock acquires the entry's spin lock.
func (e *Entry[T]) Lock() { e.lock.Lock() }

// Unlock releases the entry's spin lock.
func (e *Entry[T]) Unlock() { e.lock.Unlock() }

// Free deregisters any entity registered at this entry. Panics if the
// entry is currently pinned — callers must spin until unpinned first
// (see Directory's Deregister helper).
func (e *Entry[T]) Free() {
	if e.pinCount != 0 {
		panic(fmt.Sprintf("directory: Free called on pinned entry (pins=%d)", e.pinCount))
	}
	var zero T
	e.entity = zero
	e.has = false
}

// SetEntity registers entity at this entry.
func (e *Entry[T]) SetEntity(entity T) {
	if e.pinCount != 0 {
		panic(fmt.Sprintf("directory: SetEntity called on pinned entry (pins=%d)", e.pinCount))
	}
	e.entity = entity
	e.has = true
}

// GetEntity returns the currently registered entity and whether one
// is registered.
func (e *Entry[T]) GetEntity() (T, bool) {
	return e.entity, e.has
}

// Pin increments the entry's pin count, blocking SetEntity/Free until
// a matching Unpin.
func (e *Entry[T]) Pin() { e.pinCount++ }

// Unpin decrements the entry's pin count.
func (e *Entry[T]) Unpin() {
	if e.pinCount == 0 {
		panic("directory: Unpin called with zero pin count")
	}
	e.pinCount--
}

// IsPinned reports whether the entry currently has an outstanding pin.
func (e *Entry[T]) IsPinned() bool {
	return e.pinCount > 0
}
