// Package blockcache implements a block-caching allocator: it wraps an
// underlying Allocator and keeps up to P free-block pools, each a
// fixed-size-class cache of up to B blocks, with a least-recently-
// requested promotion policy. Two instances are used at runtime: a
// mutex-guarded one shared by a Framework for envelopes allocated
// outside worker context, and a lock-free one private to each worker
// goroutine.
package blockcache

import "sync"

// Allocator is the minimal interface a wrapped backing allocator must
// satisfy. The default implementation below just calls make([]byte).
type Allocator interface {
	Allocate(size int) []byte
	Free(block []byte)
}

// Locker is satisfied by both sync.Mutex and a no-op lock, letting
// Cache be instantiated either thread-safe or single-writer.
type Locker interface {
	Lock()
	Unlock()
}

const (
	// DefaultPools is the default number of size-class pools (P).
	DefaultPools = 8
	// DefaultBlocks is the default per-pool block capacity (B).
	DefaultBlocks = 16
	// minBlockSize clamps tiny allocations to a pointer-sized minimum.
	minBlockSize = 8
)

type poolEntry struct {
	blockSize int
	pool      blockPool
}

// Cache is a block-caching allocator. The zero value is not usable;
// construct with New.
type Cache struct {
	underlying Allocator
	lock       Locker
	entries    []poolEntry
	blocks     int
}

// DefaultAllocator is the trivial Allocator used when no user
// allocator is supplied — it simply calls make([]byte, size) and
// treats Free as a no-op, leaving reclamation to the garbage
// collector.
type DefaultAllocator struct{}

func (DefaultAllocator) Allocate(size int) []byte { return make([]byte, size) }
func (DefaultAllocator) Free([]byte)              {}

// New returns a Cache with pools worth of size classes, each caching
// up to blocks blocks, guarded by lock (use &sync.Mutex{} for a
// thread-safe cache, or NoLock{} from rtsync for a per-worker one).
func New(underlying Allocator, lock Locker, pools, blocks int) *Cache {
	if underlying == nil {
		underlying = DefaultAllocator{}
	}

	entries := make([]poolEntry, pools)
	for i := range entries {
		entries[i].pool = newBlockPool(blocks)
	}

	return &Cache{
		underlying: underlying,
		lock:       lock,
		entries:    entries,
		blocks:     blocks,
	}
}

// NewShared returns a Cache safe for concurrent use by multiple
// goroutines, suitable as a framework-wide shared cache.
func NewShared(underlying Allocator) *Cache {
	return New(underlying, &sync.Mutex{}, DefaultPools, DefaultBlocks)
}

// Allocate returns a block of at least size bytes, preferring a
// cached block from a matching pool over a fresh allocation.
func (c *Cache) Allocate(size int) []byte {
	blockSize := size
	if blockSize < minBlockSize {
		blockSize = minBlockSize
	}

	c.lock.Lock()

	var block []byte
	index := 0
	for ; index < len(c.entries); index++ {
		e := &c.entries[index]
		if e.blockSize == blockSize {
			block = e.pool.Fetch()
			break
		}
		if e.blockSize == 0 {
			// First unused slot: reserve it for this size class.
			e.blockSize = blockSize
			break
		}
	}

	// Promote the matched/claimed entry one step toward the front —
	// a least-recently-requested ordering that keeps the hottest
	// size classes early in the scan. When the promoted entry came
	// from the reserved sentinel pool (the last slot), the pool demoted
	// into that slot is drained back to the underlying allocator and
	// cleared, so the slot is free for the next new size class.
	last := len(c.entries) - 1
	if index > 0 && index < len(c.entries) {
		c.entries[index], c.entries[index-1] = c.entries[index-1], c.entries[index]
		if index == last {
			e := &c.entries[last]
			e.blockSize = 0
			for !e.pool.Empty() {
				c.underlying.Free(e.pool.Fetch())
			}
		}
	}

	c.lock.Unlock()

	if block == nil {
		block = c.underlying.Allocate(blockSize)
	}

	return block[:blockSize]
}

// FreeWithSize returns block to its matching size-class pool if one
// exists and has room; otherwise it is released to the underlying
// allocator.
func (c *Cache) FreeWithSize(block []byte, size int) {
	blockSize := size
	if blockSize < minBlockSize {
		blockSize = minBlockSize
	}

	c.lock.Lock()

	added := false
	for i := range c.entries {
		e := &c.entries[i]
		if e.blockSize == 0 {
			break
		}
		if e.blockSize == blockSize {
			added = e.pool.Add(block[:blockSize])
			break
		}
	}

	c.lock.Unlock()

	if !added {
		c.underlying.Free(block)
	}
}

// Free releases block without pooling it — used when the caller
// doesn't know (or care about) the original size class.
func (c *Cache) Free(block []byte) {
	c.underlying.Free(block)
}

// Clear drains every pool back to the underlying allocator. Called
// when a Cache is being torn down (e.g. a worker goroutine exiting).
func (c *Cache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	for i := range c.entries {
		e := &c.entries[i]
		for !e.pool.Empty() {
			c.underlying.Free(e.pool.Fetch())
		}
		e.blockSize = 0
	}
}
