package actor

import (
	"testing"

	"github.com/markintheabyss/actorframe/internal/strpool"
	"github.com/stretchr/testify/assert"
)

func TestPackIndexRoundTrip(t *testing.T) {
	idx := packIndex(0x0ab, 0x9fe12)
	assert.Equal(t, uint16(0x0ab), idx.Framework())
	assert.Equal(t, uint32(0x9fe12), idx.Mailbox())
}

func TestPackIndexMailboxMasksHighBits(t *testing.T) {
	idx := packIndex(1, 0xffffffff)
	assert.Equal(t, uint32(mailboxMask), idx.Mailbox())
}

func TestNullAddressIsNull(t *testing.T) {
	assert.True(t, NullAddress.IsNull())
	assert.Equal(t, "", NullAddress.String())
	assert.Equal(t, Index(0), NullAddress.Index())
}

func TestAddressEqualityByPooledName(t *testing.T) {
	ref := strpool.Acquire()
	defer ref.Release()

	n1 := ref.Intern("worker")
	n2 := ref.Intern("worker")

	a1 := newAddress(n1, packIndex(1, 1))
	a2 := newAddress(n2, packIndex(1, 1))
	assert.True(t, a1.Equal(a2))

	other := newAddress(ref.Intern("other"), packIndex(1, 2))
	assert.False(t, a1.Equal(other))
}

func TestAddressStringReportsInternedName(t *testing.T) {
	ref := strpool.Acquire()
	defer ref.Release()

	a := newAddress(ref.Intern("mailbox-7"), packIndex(2, 7))
	assert.Equal(t, "mailbox-7", a.String())
	assert.False(t, a.IsNull())
}

func TestAddressLessIsStableOrder(t *testing.T) {
	ref := strpool.Acquire()
	defer ref.Release()

	a := newAddress(ref.Intern("a"), packIndex(0, 1))
	b := newAddress(ref.Intern("b"), packIndex(0, 2))

	// Exactly one direction holds, and it's consistent across calls.
	first := a.Less(b)
	second := b.Less(a)
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, a.Less(b))
}
