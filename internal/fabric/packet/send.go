package packet

import (
	"time"

	"github.com/INemesisI/weave/internal/fabric"
)

// NewSource builds a fabric.Source wired with the packet Ops.
func NewSource(name string) *fabric.Source {
	return fabric.NewSource(name, Ops)
}

// Send emits buf on src and then releases the caller's own reference —
// the "consuming" convenience from spec §6 (packet_send). Use this when
// the caller is handing the buffer off and keeps no further interest in
// it.
func Send(src *fabric.Source, buf *Buffer, timeout time.Duration) (int, error) {
	n, err := fabric.Emit(src, buf, timeout)
	buf.release()
	return n, err
}

// SendRef emits buf on src without releasing the caller's reference —
// the "preserving" convenience from spec §6 (packet_send_ref). Use this
// when the caller intends to keep reading or re-sending buf afterward.
func SendRef(src *fabric.Source, buf *Buffer, timeout time.Duration) (int, error) {
	return fabric.Emit(src, buf, timeout)
}
