// Package strpool implements a process-global, reference-counted
// intern table of short names. Callers hold a *Name handle; equality
// and ordering between two handles naming the same string are
// pointer-identity comparisons, avoiding repeated string compares on
// the Address hot path.
package strpool

import "sync"

const (
	bucketCount  = 128
	hashedChars  = 64
	hashMask     = bucketCount - 1
)

// Name is an interned string handle. Two Names are equal iff they
// point at the same struct, which holds iff they were interned from
// equal strings while the same Pool was alive; a Pool created after
// the last Ref was released hands out new pointers.
type Name struct {
	s string
}

// String returns the interned string value.
func (n *Name) String() string {
	if n == nil {
		return ""
	}
	return n.s
}

type bucket struct {
	mu      sync.Mutex
	entries []*Name
}

// Pool is the process-global intern table. Obtain one via Acquire.
type Pool struct {
	buckets [bucketCount]*bucket
}

var (
	globalMu    sync.Mutex
	globalRefs  int
	globalPool  *Pool
)

// Ref is a lightweight handle that keeps the singleton Pool alive.
// Frameworks and Receivers acquire one on construction and Release it
// on teardown.
type Ref struct {
	pool *Pool
}

// Acquire creates the singleton Pool on the first call and returns a
// Ref to it; the Pool is torn down when the last Ref is released.
func Acquire() Ref {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		globalPool = newPool()
	}
	globalRefs++

	return Ref{pool: globalPool}
}

// Release drops this reference to the pool, tearing it down once the
// last reference is gone.
func (r *Ref) Release() {
	if r.pool == nil {
		return
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	globalRefs--
	if globalRefs <= 0 {
		globalPool = nil
		globalRefs = 0
	}
	r.pool = nil
}

// Intern returns the canonical *Name for s, allocating and recording
// a new one if this is the first time s has been seen.
func (r Ref) Intern(s string) *Name {
	return r.pool.Intern(s)
}

func newPool() *Pool {
	p := &Pool{}
	for i := range p.buckets {
		p.buckets[i] = &bucket{}
	}
	return p
}

// Intern returns the canonical *Name for s.
func (p *Pool) Intern(s string) *Name {
	h := hash(s)
	b := p.buckets[h]

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, n := range b.entries {
		if n.s == s {
			return n
		}
	}

	n := &Name{s: s}
	b.entries = append(b.entries, n)
	return n
}

// hash folds the first hashedChars bytes of s by XOR into a 7-bit
// bucket index.
func hash(s string) uint8 {
	n := len(s)
	if n > hashedChars {
		n = hashedChars
	}

	var h uint8
	for i := 0; i < n; i++ {
		h ^= s[i]
	}

	return h & hashMask
}
