// Package ws is the websocket egress adapter: a Queued fabric.Sink whose
// drain loop pumps delivered Packets out over one websocket connection
// per HTTP upgrade, generalizing the teacher's handler/ws/delivery.go
// (which pumped domain events from a per-user Connector instead of
// fabric Packets from a Sink queue).
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"github.com/INemesisI/weave/internal/diagnostics"
	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
	"github.com/INemesisI/weave/internal/telemetry"
)

// Handler upgrades HTTP connections to websockets and wires each one to
// its own dedicated Sink, connected into src for the lifetime of the
// connection.
type Handler struct {
	logger   *slog.Logger
	src      *fabric.Source
	registry *fabric.Registry
	diag     *diagnostics.Registry
	upgrader websocket.Upgrader
}

// New builds a Handler serving connections out of src (typically the
// packet pool's ingress source, or any fabric.Source an operator wants
// to expose over websocket). diag records per-connection activity for
// the /debug/stats endpoint's recently-active names.
func New(logger *slog.Logger, src *fabric.Source, registry *fabric.Registry, diag *diagnostics.Registry) *Handler {
	return &Handler{
		logger:   logger,
		src:      src,
		registry: registry,
		diag:     diag,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	name := "ws-" + uuid.NewString()
	sink := packet.NewSink(name, packet.AnyID, 64, func(buf *packet.Buffer) {
		if err := conn.WriteMessage(websocket.BinaryMessage, buf.Data()); err != nil {
			h.logger.Warn("ws write failed", "error", err, "sink", name)
		}
	})

	connection, err := h.registry.Connect(h.src, sink)
	if err != nil {
		h.logger.Error("ws sink connect failed", "error", err)
		return
	}
	defer h.registry.Disconnect(connection.Source, connection.Sink)
	h.diag.Touch(name)

	h.logger.Info("ws opened", "sink", name)

	stop := make(chan struct{})
	go telemetry.TracedRunDrainLoop(r.Context(), sink.Queue(), 250*time.Millisecond, stop)
	defer close(stop)

	// Block until the client disconnects; the drain goroutine is what
	// actually delivers, this loop only detects connection death.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Info("ws closed", "sink", name, "error", err)
			return
		}
	}
}
