// Package wiring composes the fabric primitives into fx modules and
// hosts the static "inventory" registration pattern spec §9 calls for:
// an explicit registration interface, invoked from package init-style
// bootstrap code, standing in for the C original's linker-section
// registry.
package wiring

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/INemesisI/weave/config"
	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
)

// Module provides the process-wide fabric.Registry and packet.Pool,
// sized from config, the same shape as the teacher's registry.Module
// providing a single *Hub singleton.
var Module = fx.Module("fabric",
	fx.Provide(
		NewRegistry,
		NewPacketPool,
	),
	fx.Invoke(registerLifecycle),
)

// NewRegistry builds the process-wide connection registry. The dynamic
// pool is sized 0 (RuntimeConnections disabled entirely, spec §6) when
// cfg disables it.
func NewRegistry(cfg *config.Config) *fabric.Registry {
	size := 0
	if cfg.Fabric.RuntimeConnections {
		size = cfg.Fabric.ConnectionPoolSize
	}
	reg := fabric.NewRegistry(size)
	reg.SetStackCheck(cfg.Fabric.RuntimeStackCheck)
	return reg
}

// NewPacketPool builds the process-wide packet buffer pool.
func NewPacketPool(cfg *config.Config) *packet.Pool {
	return packet.NewPool(
		"packets",
		cfg.Fabric.PacketPoolSize,
		cfg.Fabric.PacketBufferSize,
		cfg.Fabric.PacketTimestampHires,
		nil,
	)
}

// StaticEdge is one compile-time-known {source, sink, priority} record,
// the Go-native substitute for the linker-section registration spec §9
// names. Application packages provide StaticEdge values into the
// fabric.edges value group (see edgeParams and cmd/fx.go's
// noStaticEdges) so registerLifecycle can wire them at Init.
type StaticEdge struct {
	Source   *fabric.Source
	Sink     *fabric.Sink
	Priority int
}

// edgeParams collects every adapter-contributed StaticEdge through an fx
// value group: each ingress/egress module appends its own edges with
// `fx.ResultTags(\`group:"fabric.edges"\`)`, and this single consumer
// wires all of them at once without knowing which adapters are present.
type edgeParams struct {
	fx.In
	Edges []StaticEdge `group:"fabric.edges"`
}

// registerLifecycle appends every contributed StaticEdge into reg and
// runs Init during fx's OnStart hook — the single initialization pass
// spec §4.3 describes, deferred to application startup rather than
// package init() so that fx's own dependency graph controls ordering
// relative to the adapters that own each source and sink.
func registerLifecycle(lc fx.Lifecycle, reg *fabric.Registry, p edgeParams, logger *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, e := range p.Edges {
				reg.RegisterStatic(e.Source, e.Sink, e.Priority)
			}
			wired := reg.Init()
			logger.Infow("fabric wired", "static_connections", wired)
			return nil
		},
	})
}
