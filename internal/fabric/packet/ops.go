package packet

import "github.com/INemesisI/weave/internal/fabric"

// binding is the per-sink configuration the packet PayloadOps looks
// for in fabric.Sink.UserData(): which packet_id this sink filters on.
type binding struct {
	filter uint8
}

// HandlerFunc receives a borrowed *Buffer for the duration of the call,
// the packet-typed counterpart of fabric.HandlerFunc.
type HandlerFunc func(buf *Buffer)

// NewSink builds a fabric.Sink bound to filter (AnyID to receive every
// packet). queueCapacity == 0 makes it an Immediate sink; otherwise it
// is Queued with that capacity.
func NewSink(name string, filter uint8, queueCapacity int, handler HandlerFunc) *fabric.Sink {
	wrapped := func(payload any, _ any) {
		handler(payload.(*Buffer))
	}
	b := &binding{filter: filter}
	if queueCapacity == 0 {
		return fabric.NewImmediateSink(name, wrapped, b)
	}
	return fabric.NewQueuedSink(name, wrapped, b, queueCapacity)
}

// Ops is the fabric.Ops every packet Source should use: Ref applies the
// receiving sink's ID filter (spec §4.4), Unref drops one reference on
// the underlying Buffer.
var Ops = &fabric.Ops{Ref: ref, Unref: unref}

func ref(payload any, sink *fabric.Sink) error {
	buf, ok := payload.(*Buffer)
	if !ok {
		return fabric.ErrInvalidArgument
	}
	if b, ok := sink.UserData().(*binding); ok && b.filter != AnyID {
		if buf.Metadata.PacketID != b.filter {
			return fabric.Filter()
		}
	}
	buf.addRef()
	return nil
}

func unref(payload any) {
	if buf, ok := payload.(*Buffer); ok {
		buf.release()
	}
}
