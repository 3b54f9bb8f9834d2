package actor

import (
	"reflect"

	"github.com/markintheabyss/actorframe/internal/strpool"
)

const (
	mailboxBits = 20
	mailboxMask = 1<<mailboxBits - 1
)

// Index is the packed (framework, mailbox) pair identifying a mailbox
// process-wide: 12 bits of framework index, 20 bits of mailbox index
// within that framework. The zero Index is the null
// address; a zero framework component addresses a Receiver instead of
// an Actor.
type Index uint32

func packIndex(framework uint16, mailbox uint32) Index {
	return Index(uint32(framework)<<mailboxBits | (mailbox & mailboxMask))
}

// Framework returns the 12-bit framework component.
func (i Index) Framework() uint16 { return uint16(i >> mailboxBits) }

// Mailbox returns the 20-bit mailbox component.
func (i Index) Mailbox() uint32 { return uint32(i) & mailboxMask }

// Address identifies a mailbox: a pooled name for identity-print and
// equality, plus a packed Index. Equality compares the pooled name by
// pointer rather than string content; ordering is total but
// arbitrary, derived from that same pointer.
type Address struct {
	name  *strpool.Name
	index Index
}

// NullAddress is the distinguished zero-value address.
var NullAddress = Address{}

func newAddress(name *strpool.Name, index Index) Address {
	return Address{name: name, index: index}
}

// IsNull reports whether a is the null address.
func (a Address) IsNull() bool { return a.index == 0 }

// Index returns the address's packed framework/mailbox pair.
func (a Address) Index() Index { return a.index }

// String returns the address's interned name, or "" for the null
// address.
func (a Address) String() string {
	if a.name == nil {
		return ""
	}
	return a.name.String()
}

// Equal reports whether a and other name the same mailbox, by pooled
// name identity rather than string comparison.
func (a Address) Equal(other Address) bool { return a.name == other.name }

// Less provides a total, arbitrary order over addresses derived from
// the pooled name's pointer, for callers that need one (e.g. sorted
// diagnostics); it carries no meaning beyond "a stable order exists".
func (a Address) Less(other Address) bool {
	return reflect.ValueOf(a.name).Pointer() < reflect.ValueOf(other.name).Pointer()
}
