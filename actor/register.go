package actor

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/markintheabyss/actorframe/internal/strpool"
)

// typeKeys maps a message type to its registered stable name. Dispatch
// for a type with no entry falls back to the host runtime's type
// identity (reflect.Type) instead.
var (
	typeKeyMu      sync.Mutex
	typeKeys       = map[reflect.Type]*strpool.Name{}
	usedWithoutKey = map[reflect.Type]bool{}
)

// RegisterMessageName associates a stable interned name with message
// type V, so every handler registered for V and every envelope
// carrying a V payload dispatch by pointer-identity comparison instead
// of falling back to reflect.Type. Registering a name for a type that
// has already been dispatched unnamed (as a handler or a Send payload)
// is a mixed use of named and unnamed keys for the same type, and
// panics.
func RegisterMessageName[V any](name string) {
	var zero V
	t := reflect.TypeOf(&zero).Elem()

	typeKeyMu.Lock()
	defer typeKeyMu.Unlock()

	if usedWithoutKey[t] {
		panic(fmt.Sprintf("actorframe: message type %s was already dispatched without a registered name; cannot register %q now", t, name))
	}

	if existing, ok := typeKeys[t]; ok && existing.String() != name {
		panic(fmt.Sprintf("actorframe: message type %s already registered as %q, cannot re-register as %q", t, existing.String(), name))
	}

	ref := strpool.Acquire()
	defer ref.Release()
	typeKeys[t] = ref.Intern(name)
}

// typeKeyFor returns the registered stable name for V, or nil if V has
// no registered name, marking V as having been used without one so a
// later RegisterMessageName[V] call is caught as mixed usage.
func typeKeyFor[V any]() *strpool.Name {
	var zero V
	t := reflect.TypeOf(&zero).Elem()

	typeKeyMu.Lock()
	defer typeKeyMu.Unlock()

	if name, ok := typeKeys[t]; ok {
		return name
	}
	usedWithoutKey[t] = true
	return nil
}
