// Package directory implements the indexable slot table of registered
// entities: a lazily-paged array of entries,
// each independently lockable and pin-protected, so a cross-framework
// send can safely dereference a target that might be concurrently
// destructing — the destructor spins until the reader's pin is
// released (see Directory.Deregister).
package directory

import (
	"sync"

	"github.com/markintheabyss/actorframe/internal/backoff"
)

const (
	entriesPerPage = 1024 // power of two, so index-to-page math is a shift
	maxPages       = 1024
)

type page[T any] struct {
	entries [entriesPerPage]Entry[T]
}

// Directory is a registry mapping unique uint32 indices to entries of
// type T. Index 0 is reserved for the null address and is never
// allocated to a caller.
type Directory[T any] struct {
	mu        sync.Mutex
	nextIndex uint32
	pages     [maxPages]*page[T]
}

// New returns an empty Directory.
func New[T any]() *Directory[T] {
	return &Directory[T]{}
}

// Allocate reserves an index. If index is 0, the next index from an
// incrementing counter is assigned (wrapping around the index space,
// skipping 0); whether that slot still holds an entity is not
// checked. Otherwise the given index is returned unchanged. Either way
// the index's backing page is ensured to exist.
func (d *Directory[T]) Allocate(index uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index == 0 {
		d.nextIndex++
		if d.nextIndex >= maxPages*entriesPerPage {
			d.nextIndex = 1
		}
		index = d.nextIndex
	}

	pageIndex := index / entriesPerPage
	if d.pages[pageIndex] == nil {
		d.pages[pageIndex] = &page[T]{}
	}

	return index
}

// GetEntry returns the entry for index without taking the directory
// lock; the caller is expected to have already Allocate'd the index
// (and thus its backing page) on this or another goroutine with a
// happens-before relationship (allocation always precedes lookup for
// a given address in this runtime).
func (d *Directory[T]) GetEntry(index uint32) *Entry[T] {
	pageIndex := index / entriesPerPage
	offset := index % entriesPerPage

	p := d.pages[pageIndex]
	if p == nil {
		return nil
	}

	return &p.entries[offset]
}

// Deregister busy-spins until the entry at index is unpinned, then
// frees it. Forward progress is guaranteed because every reader's pin
// is held for a bounded duration.
func (d *Directory[T]) Deregister(index uint32) {
	entry := d.GetEntry(index)
	if entry == nil {
		return
	}

	var attempt uint32
	for {
		entry.Lock()
		if !entry.IsPinned() {
			entry.Free()
			entry.Unlock()
			return
		}
		entry.Unlock()
		backoff.Wait(attempt)
		attempt++
	}
}
