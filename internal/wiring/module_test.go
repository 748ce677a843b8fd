package wiring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INemesisI/weave/config"
	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
)

func baseConfig() *config.Config {
	var cfg config.Config
	cfg.Fabric.RuntimeConnections = true
	cfg.Fabric.ConnectionPoolSize = 4
	cfg.Fabric.PacketPoolSize = 2
	cfg.Fabric.PacketBufferSize = 32
	return &cfg
}

func TestNewRegistryHonorsRuntimeConnectionsDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.Fabric.RuntimeConnections = false

	reg := NewRegistry(cfg)

	src := fabric.NewSource("s", packet.Ops)
	sink := packet.NewSink("sink", packet.AnyID, 0, func(*packet.Buffer) {})
	_, err := reg.Connect(src, sink)
	assert.ErrorIs(t, err, fabric.ErrOutOfMemory)
}

func TestNewRegistrySizesDynamicPoolFromConfig(t *testing.T) {
	cfg := baseConfig()
	reg := NewRegistry(cfg)

	src := fabric.NewSource("s", packet.Ops)
	for i := 0; i < cfg.Fabric.ConnectionPoolSize; i++ {
		sink := packet.NewSink("sink", packet.AnyID, 0, func(*packet.Buffer) {})
		_, err := reg.Connect(src, sink)
		require.NoError(t, err)
	}

	overflow := packet.NewSink("overflow", packet.AnyID, 0, func(*packet.Buffer) {})
	_, err := reg.Connect(src, overflow)
	assert.ErrorIs(t, err, fabric.ErrOutOfMemory)
}

func TestNewPacketPoolAllocatesExactlyConfiguredCapacity(t *testing.T) {
	cfg := baseConfig()
	pool := NewPacketPool(cfg)

	var bufs []*packet.Buffer
	for i := 0; i < cfg.Fabric.PacketPoolSize; i++ {
		buf, err := pool.Alloc(0)
		require.NoError(t, err)
		bufs = append(bufs, buf)
	}

	_, err := pool.Alloc(0)
	assert.Error(t, err)
}
