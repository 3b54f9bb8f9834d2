package actor

import (
	"testing"

	"github.com/markintheabyss/actorframe/internal/blockcache"
	"github.com/markintheabyss/actorframe/internal/rtsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeCapturesPayloadAndSender(t *testing.T) {
	from := newAddress(nil, packIndex(1, 1))
	env := newEnvelope(from, "hello")

	assert.Equal(t, from, env.from)
	assert.Equal(t, "hello", env.payload)
	assert.NotNil(t, env.goType)
}

func TestEnvelopeBlindBytesIsWordAligned(t *testing.T) {
	env := newEnvelope(NullAddress, "hi")
	cache := blockcache.New(blockcache.DefaultAllocator{}, rtsync.NoLock{}, blockcache.DefaultPools, blockcache.DefaultBlocks)

	data, size := env.blindBytes(cache)
	require.NotNil(t, data)
	assert.Equal(t, 0, size%wordAlign)
	assert.GreaterOrEqual(t, len(data), size)
}

func TestEnvelopeBlindBytesIsMemoizedAcrossCalls(t *testing.T) {
	env := newEnvelope(NullAddress, 42)
	cache := blockcache.New(blockcache.DefaultAllocator{}, rtsync.NoLock{}, blockcache.DefaultPools, blockcache.DefaultBlocks)

	data1, size1 := env.blindBytes(cache)
	data2, size2 := env.blindBytes(cache)

	assert.Same(t, &data1[0], &data2[0])
	assert.Equal(t, size1, size2)
}

func TestEnvelopeDestroyIsSafeWithoutBlindBytes(t *testing.T) {
	env := newEnvelope(NullAddress, 1)
	assert.NotPanics(t, func() { env.destroy() })
}
