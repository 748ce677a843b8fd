package fabric

import "time"

// Process drains queue, invoking each event's sink handler and then its
// Ops.Unref (spec §4.2). It pops one event with the supplied timeout;
// if that pop succeeds, it then drains any further events that are
// already available, non-blocking, before returning. Returns the
// number of events processed, or ErrTimeout if nothing arrived within
// timeout.
//
// The state machine of one event is Pending -> InFlight (handler
// running) -> Released (Unref done), terminal on Unref regardless of
// the handler's own success or failure — the generic path carries no
// handler return value end to end; only the Method/RPC path does that.
func Process(queue *Queue, timeout time.Duration) (int, error) {
	first, err := queue.Get(timeout)
	if err != nil {
		return 0, err
	}
	processEvent(first)
	processed := 1

	for {
		ev, ok := queue.TryGet()
		if !ok {
			return processed, nil
		}
		processEvent(ev)
		processed++
	}
}

func processEvent(ev Event) {
	ev.Sink.invoke(ev.Payload)
	if ev.Sink.stats != nil {
		ev.Sink.stats.recordHandled()
	}
	ev.Ops.unref(ev.Payload)
}

// RunDrainLoop blocks, repeatedly calling Process on queue with
// blockTimeout until stop is closed, the generalization of the
// teacher's Cell.loop consumer goroutine. It is a convenience for
// callers that want a dedicated consumer thread per queue rather than
// driving Process themselves. stop is checked only between Process
// calls, so the loop returns at most one blockTimeout after stop is
// closed; with blockTimeout == Indefinite it returns only once another
// event has arrived.
func RunDrainLoop(queue *Queue, blockTimeout time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if _, err := Process(queue, blockTimeout); err != nil && err != ErrTimeout {
			return
		}
	}
}
