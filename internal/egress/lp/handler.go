// Package lp is the long-poll egress adapter: a temporary Queued Sink
// connected for the duration of one HTTP request, generalizing the
// teacher's handler/lp/delivery.go (which polled a per-user Connector
// channel instead of a fabric Sink's queue).
package lp

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/INemesisI/weave/internal/diagnostics"
	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
)

const (
	pollTimeout   = 30 * time.Second
	maxBatchDrain = 15
)

// Handler polls a fabric.Source on behalf of HTTP long-poll clients.
type Handler struct {
	src      *fabric.Source
	registry *fabric.Registry
	diag     *diagnostics.Registry
}

// New builds a Handler polling src. diag records per-request activity
// for the /debug/stats endpoint's recently-active names.
func New(src *fabric.Source, registry *fabric.Registry, diag *diagnostics.Registry) *Handler {
	return &Handler{src: src, registry: registry, diag: diag}
}

// Poll holds the request open until at least one Packet arrives on a
// temporary sink, or pollTimeout elapses, then batches up to
// maxBatchDrain additional already-queued packets into the response
// before returning — the same batching shape as the teacher's
// drainLoop, generalized from domain events to raw packet bytes.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	_ = chi.URLParam(r, "sinkID") // reserved for per-identity routing, unused by the generic fabric sink

	name := "lp-" + uuid.NewString()
	sink := packet.NewSink(name, packet.AnyID, 64, func(*packet.Buffer) {})
	conn, err := h.registry.Connect(h.src, sink)
	if err != nil {
		http.Error(w, "failed to subscribe", http.StatusInternalServerError)
		return
	}
	defer h.registry.Disconnect(conn.Source, conn.Sink)
	h.diag.Touch(name)

	ctx := r.Context()
	var batch [][]byte

	first := make(chan fabric.Event, 1)
	go func() {
		if ev, err := sink.Queue().Get(pollTimeout); err == nil {
			first <- ev
		}
		close(first)
	}()

	select {
	case <-ctx.Done():
		return
	case ev, ok := <-first:
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		batch = append(batch, copyPayload(ev))

		for range maxBatchDrain {
			ev, ok := sink.Queue().TryGet()
			if !ok {
				break
			}
			batch = append(batch, copyPayload(ev))
		}
	}

	encoded := make([]string, len(batch))
	for i, b := range batch {
		encoded[i] = base64.StdEncoding.EncodeToString(b)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(encoded)
}

func copyPayload(ev fabric.Event) []byte {
	buf := ev.Payload.(*packet.Buffer)
	out := make([]byte, len(buf.Data()))
	copy(out, buf.Data())
	ev.Ops.Unref(buf)
	return out
}
