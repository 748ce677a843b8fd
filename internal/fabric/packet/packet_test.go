package packet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
)

func TestPoolAllocStampsMetadata(t *testing.T) {
	pool := packet.NewPool("pool", 4, 64, false, nil)

	b1, err := pool.Alloc(fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, packet.AnyID, b1.Metadata.PacketID)
	assert.True(t, b1.HasMetadata())

	b2, err := pool.AllocWithID(7, fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), b2.Metadata.PacketID)
	assert.NotEqual(t, b1.Metadata.Counter, b2.Metadata.Counter)
}

// Pool capacity never grows: exhaustion with a zero timeout fails
// immediately instead of blocking.
func TestPoolExhaustionNonBlocking(t *testing.T) {
	pool := packet.NewPool("pool", 1, 16, false, nil)

	_, err := pool.Alloc(fabric.Indefinite)
	require.NoError(t, err)

	_, err = pool.Alloc(0)
	assert.ErrorIs(t, err, fabric.ErrTimeout)
}

// Final release runs the destructor and returns the buffer to the pool,
// which a subsequent Alloc can then reuse (spec §4.4).
func TestBufferFinalReleaseRunsDestructorAndReturnsToPool(t *testing.T) {
	destructed := 0
	pool := packet.NewPool("pool", 1, 16, false, func(*packet.Buffer) { destructed++ })

	b, err := pool.Alloc(fabric.Indefinite)
	require.NoError(t, err)

	_, err = pool.Alloc(0)
	require.Error(t, err, "pool of capacity 1 should be exhausted")

	src := packet.NewSource("src")
	reg := fabric.NewRegistry(1)
	sink := packet.NewSink("sink", packet.AnyID, 0, func(*packet.Buffer) {})
	_, err = reg.Connect(src, sink)
	require.NoError(t, err)

	_, err = packet.Send(src, b, fabric.Indefinite)
	require.NoError(t, err)

	assert.Equal(t, 1, destructed)
	assert.False(t, b.HasMetadata(), "metadata trailer must be cleared on release")

	_, err = pool.Alloc(0)
	require.NoError(t, err, "destructed buffer must have returned to the pool")
}

// S2 — ID filter: a sink bound to AnyID receives every packet; a sink
// bound to a specific ID receives only matching packets, and mismatches
// are skipped, not counted as drops (spec §8 property 6).
func TestFilterTransparency(t *testing.T) {
	pool := packet.NewPool("pool", 8, 16, false, nil)
	src := packet.NewSource("src")
	reg := fabric.NewRegistry(4)

	var k7, k9, kAny int
	sinkK7 := packet.NewSink("K7", 7, 0, func(*packet.Buffer) { k7++ })
	sinkK9 := packet.NewSink("K9", 9, 0, func(*packet.Buffer) { k9++ })
	sinkKAny := packet.NewSink("KAny", packet.AnyID, 0, func(*packet.Buffer) { kAny++ })

	for _, s := range []*fabric.Sink{sinkK7, sinkK9, sinkKAny} {
		_, err := reg.Connect(src, s)
		require.NoError(t, err)
	}

	b1, err := pool.AllocWithID(7, fabric.Indefinite)
	require.NoError(t, err)
	n, err := packet.Send(src, b1, fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b2, err := pool.AllocWithID(9, fabric.Indefinite)
	require.NoError(t, err)
	n, err = packet.Send(src, b2, fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 1, k7)
	assert.Equal(t, 1, k9)
	assert.Equal(t, 2, kAny)
	assert.Equal(t, uint64(0), sinkK7.Stats().DroppedCount())
	assert.Equal(t, uint64(0), sinkK9.Stats().DroppedCount())
}

func TestSendConsumesCallerReferenceSendRefPreservesIt(t *testing.T) {
	destructed := 0
	pool := packet.NewPool("pool", 2, 16, false, func(*packet.Buffer) { destructed++ })
	src := packet.NewSource("src")
	reg := fabric.NewRegistry(1)
	sink := packet.NewSink("sink", packet.AnyID, 0, func(*packet.Buffer) {})
	_, err := reg.Connect(src, sink)
	require.NoError(t, err)

	b, err := pool.Alloc(fabric.Indefinite)
	require.NoError(t, err)

	_, err = packet.SendRef(src, b, fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, 0, destructed, "SendRef must not release the caller's own reference")

	_, err = packet.Send(src, b, fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, 1, destructed, "Send releases the caller's own reference after emitting")
}
