package actor

import (
	"bytes"
	"encoding/gob"
	"reflect"

	"github.com/markintheabyss/actorframe/internal/blockcache"
	"github.com/markintheabyss/actorframe/internal/strpool"
)

// wordAlign is the padding boundary envelope.blindBytes rounds its
// encoded size up to.
const wordAlign = 8

// envelope is the single-owner message allocation that moves through
// mailboxes: a sender address, the boxed payload, its dispatch key,
// and a lazily-built "blind" byte encoding used by default/fallback
// handlers. Constructed by the sender, destroyed by the worker that
// invoked the handler chain.
type envelope struct {
	from    Address
	payload any
	name    *strpool.Name // nil => dispatch falls back to goType identity
	goType  reflect.Type

	blind     []byte // sourced from a blockcache.Cache; nil until blindBytes is called
	blindSize int
	cache     *blockcache.Cache
}

func newEnvelope[V any](from Address, value V) *envelope {
	return &envelope{
		from:    from,
		payload: value,
		name:    typeKeyFor[V](),
		goType:  reflect.TypeOf(value),
	}
}

// blindBytes returns a word-aligned gob encoding of the payload,
// allocating it from cache on first use so repeated reads (e.g. a
// default handler called once) don't re-encode. Boxed Go payloads
// don't vary in allocation size the way raw memory blocks do, so the
// cache's multiple size classes are instead exercised by this encoded
// form.
func (e *envelope) blindBytes(cache *blockcache.Cache) ([]byte, int) {
	if e.blind != nil {
		return e.blind, e.blindSize
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e.payload); err != nil {
		return nil, 0
	}

	raw := buf.Bytes()
	size := len(raw)
	padded := size
	if rem := padded % wordAlign; rem != 0 {
		padded += wordAlign - rem
	}

	block := cache.Allocate(padded)
	copy(block, raw)

	e.blind = block
	e.blindSize = padded
	e.cache = cache
	return e.blind, e.blindSize
}

// destroy releases any cache-sourced blind encoding. Safe to call even
// if blindBytes was never invoked.
func (e *envelope) destroy() {
	if e.blind != nil && e.cache != nil {
		e.cache.FreeWithSize(e.blind, e.blindSize)
		e.blind = nil
	}
}
