package fabric

import "time"

// Indefinite requests an unbounded wait from Queue.Put/Get. Zero means
// non-blocking. Any positive duration is a bounded wait.
const Indefinite time.Duration = -1

// Event is a queued delivery record: exactly the information needed to
// replay an immediate delivery later, from a possibly different
// goroutine. Ops is captured at emission time so that a later change to
// a Source's Ops cannot desynchronize the ref/unref pairing for events
// already in flight (spec §3 invariant 6).
type Event struct {
	Sink    *Sink
	Payload any
	Ops     *Ops
}

// Queue is a bounded FIFO of Events, spec §3. It is a thin wrapper
// around a buffered channel: capacity is fixed at construction, Put
// drops (returns ErrQueueFull) rather than grows when full.
type Queue struct {
	name string
	ch   chan Event
}

// NewQueue allocates a queue with the given fixed capacity. name is
// used only for diagnostics (config NAMES).
func NewQueue(name string, capacity int) *Queue {
	return &Queue{name: name, ch: make(chan Event, capacity)}
}

func (q *Queue) Name() string { return q.name }

// Len reports the number of events currently buffered.
func (q *Queue) Len() int { return len(q.ch) }

// Cap reports the queue's fixed capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Put enqueues ev, waiting up to timeout for room. timeout == 0 is
// non-blocking; timeout == Indefinite waits forever. Returns
// ErrQueueFull if no room became available in time.
func (q *Queue) Put(ev Event, timeout time.Duration) error {
	if timeout == 0 {
		select {
		case q.ch <- ev:
			return nil
		default:
			return ErrQueueFull
		}
	}
	if timeout == Indefinite {
		q.ch <- ev
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case q.ch <- ev:
		return nil
	case <-t.C:
		return ErrQueueFull
	}
}

// Get pops one event, waiting up to timeout. timeout == 0 is
// non-blocking; timeout == Indefinite waits forever. Returns ErrTimeout
// if nothing arrived in time.
func (q *Queue) Get(timeout time.Duration) (Event, error) {
	if timeout == 0 {
		select {
		case ev := <-q.ch:
			return ev, nil
		default:
			return Event{}, ErrTimeout
		}
	}
	if timeout == Indefinite {
		return <-q.ch, nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev := <-q.ch:
		return ev, nil
	case <-t.C:
		return Event{}, ErrTimeout
	}
}

// TryGet pops one event if one is immediately available, without
// blocking at all. Used by Process to drain a burst non-blockingly
// after the first (possibly blocking) pop.
func (q *Queue) TryGet() (Event, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	default:
		return Event{}, false
	}
}
