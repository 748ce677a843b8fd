package fabric

import "time"

// Emit is the top-level distribution primitive (spec §4.1). It walks
// source's connections in insertion order, delivering payload to each
// sink and returning the number that successfully accepted it. A
// filtered sink (RefFunc returned Filter()) is neither an error nor a
// delivery — it is simply excluded from the count.
//
// timeout is a single budget applied across the whole fan-out: a
// deadline is computed once at entry, and each sink gets whatever of it
// remains. Once the deadline has passed, remaining sinks are attempted
// non-blocking (timeout 0) rather than failing outright — spec §4.1's
// "tie-breaks and edge cases". timeout == 0 means every sink gets a
// non-blocking attempt; timeout == Indefinite means no deadline is ever
// computed and every sink may block forever on queue admission.
func Emit(src *Source, payload any, timeout time.Duration) (int, error) {
	if src == nil || payload == nil {
		return 0, ErrInvalidArgument
	}

	conns := src.snapshot()

	if src.ops.RestrictsFanout() && len(conns) > 1 {
		return 0, ErrInvalidArgument
	}

	src.stats.recordSend()

	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	delivered := 0
	for _, conn := range conns {
		sinkTimeout := timeout
		if hasDeadline {
			sinkTimeout = remaining(deadline)
		}
		if err := deliverToQueueOrHandler(conn.Sink, payload, src.ops, sinkTimeout); err == nil {
			delivered++
		}
	}

	src.stats.recordDelivered(uint64(delivered))
	return delivered, nil
}

func remaining(deadline time.Time) time.Duration {
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	return d
}

// deliverToQueueOrHandler performs the full single-sink delivery
// sequence from spec §4.1: ref, then immediate-invoke-and-unref or
// enqueue-and-defer-unref, with unref on every failure path that took a
// reference but could not complete delivery.
func deliverToQueueOrHandler(sink *Sink, payload any, ops *Ops, timeout time.Duration) error {
	if refErr := ops.ref(payload, sink); refErr != nil {
		// Filtered or failed: no reference was taken, nothing to unref.
		return refErr
	}

	switch sink.mode {
	case Immediate:
		sink.invoke(payload)
		ops.unref(payload)
		if sink.stats != nil {
			sink.stats.recordHandled()
		}
		return nil

	case Queued:
		ev := Event{Sink: sink, Payload: payload, Ops: ops}
		if err := sink.queue.Put(ev, timeout); err != nil {
			ops.unref(payload)
			if sink.stats != nil {
				sink.stats.recordDropped()
			}
			return ErrQueueFull
		}
		return nil

	default:
		ops.unref(payload)
		return ErrNotSupported
	}
}
