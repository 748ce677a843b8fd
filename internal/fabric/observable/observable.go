// Package observable implements the state-cell primitive from spec §4.5:
// a mutex-guarded value with an optional validator, an owner sink invoked
// on every change, and an internal fabric.Source that fans the new value
// out to any number of external subscribers.
package observable

import (
	"time"

	"github.com/INemesisI/weave/internal/fabric"
)

// Validator inspects a candidate value against the current one and
// returns a non-nil error to reject it. It runs on Set and Validate
// only; values written through Claim and then Finish/Publish are never
// validated. A nil Validator accepts every Set unconditionally.
type Validator[T any] func(current, candidate T) error

// Observable is a generic state cell (spec §4.5). Observers subscribe by
// connecting a Sink to Source() through a Registry, the same as any
// other fabric connection; they receive the *Observable[T] itself as the
// payload and are expected to call Get to read the value it now holds.
type Observable[T any] struct {
	name      string
	validator Validator[T]
	owner     *fabric.Sink

	lock  chan struct{} // 1-buffered, held == empty; ungrounded by sync.Mutex because Claim needs a timeout
	value T

	claimed bool

	source *fabric.Source
}

// ops is the internal source's PayloadOps: both callbacks are present
// but no-ops. Spec §4.5 calls this out explicitly — observers receive an
// *Observable[T] pointer that carries no reference count of its own —
// and a non-nil *Ops whose callbacks do nothing is exactly what lets this source bypass the
// single-sink-without-ops restriction (fabric.Ops.RestrictsFanout) while
// doing no ref-counting work at all.
var ops = &fabric.Ops{
	Ref:   func(any, *fabric.Sink) error { return nil },
	Unref: func(any) {},
}

// New builds an Observable holding initial, optionally validated by
// validator, optionally owned by owner (invoked — immediate or queued,
// per the sink's own configuration — on every Set/Publish). name is used
// only for the internal source's diagnostics identity.
func New[T any](name string, initial T, validator Validator[T], owner *fabric.Sink) *Observable[T] {
	o := &Observable[T]{
		name:      name,
		validator: validator,
		owner:     owner,
		lock:      make(chan struct{}, 1),
		value:     initial,
		source:    fabric.NewSource(name, ops),
	}
	o.lock <- struct{}{}
	return o
}

// Source is the internal fan-out endpoint external observers connect to
// (spec §4.5 "internal_source"). Wire it into a Registry the same as any
// other source.
func (o *Observable[T]) Source() *fabric.Source { return o.source }

func (o *Observable[T]) acquire(timeout time.Duration) bool {
	if timeout == 0 {
		select {
		case <-o.lock:
			return true
		default:
			return false
		}
	}
	if timeout == fabric.Indefinite {
		<-o.lock
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-o.lock:
		return true
	case <-t.C:
		return false
	}
}

func (o *Observable[T]) release() {
	o.lock <- struct{}{}
}

// Validate invokes the validator against candidate without applying it
// (spec §4.5 "validate"). A nil validator always returns nil.
func (o *Observable[T]) Validate(candidate T) error {
	if o.validator == nil {
		return nil
	}
	if !o.acquire(fabric.Indefinite) {
		return fabric.ErrTimeout
	}
	current := o.value
	o.release()
	return o.validator(current, candidate)
}

// Set validates, applies, and notifies in one call (spec §4.5 "set"):
// validate the candidate, copy it in under the mutex, then invoke the
// owner sink and emit on the internal source. Returns the number of
// external observers successfully notified (the owner sink, if any,
// does not count toward this total — it is a separate, always-attempted
// notification). A validator rejection returns its error and leaves the
// value unchanged; the mutex is then taken only briefly, to read the
// current value handed to the validator, and nothing is written.
func (o *Observable[T]) Set(candidate T, timeout time.Duration) (int, error) {
	if o.validator != nil {
		if !o.acquire(fabric.Indefinite) {
			return 0, fabric.ErrTimeout
		}
		current := o.value
		o.release()
		if err := o.validator(current, candidate); err != nil {
			return 0, err
		}
	}

	if !o.acquire(timeout) {
		return 0, fabric.ErrTimeout
	}
	o.value = candidate
	o.release()

	return o.notify(timeout)
}

// Get copies out the current value under the mutex (spec §4.5 "get").
func (o *Observable[T]) Get() T {
	<-o.lock
	v := o.value
	o.lock <- struct{}{}
	return v
}

// Claim acquires exclusive in-place access to the value for up to
// timeout (spec §4.5 "claim"), returning a pointer the caller may read
// or mutate freely until it calls Finish or Publish. A second Claim
// before either of those blocks like any other acquire.
func (o *Observable[T]) Claim(timeout time.Duration) (*T, error) {
	if !o.acquire(timeout) {
		return nil, fabric.ErrTimeout
	}
	o.claimed = true
	return &o.value, nil
}

// Finish releases a prior Claim without notifying observers (spec §4.5
// "finish"). Calling Finish without a live Claim is a programming error.
func (o *Observable[T]) Finish() {
	o.claimed = false
	o.release()
}

// Publish releases a prior Claim and runs the same owner-sink-then-
// internal-source notification Set performs (spec §4.5 "publish").
func (o *Observable[T]) Publish(timeout time.Duration) (int, error) {
	o.claimed = false
	o.release()
	return o.notify(timeout)
}

// notify invokes the owner sink (best-effort, error discarded — the
// owner is a secondary observer, not a gate on delivery to the real
// subscribers) and then emits o on the internal source, returning the
// count of external observers that accepted it.
func (o *Observable[T]) notify(timeout time.Duration) (int, error) {
	if o.owner != nil {
		_ = fabric.SinkSend(o.owner, o, ops, timeout)
	}
	return fabric.Emit(o.source, o, timeout)
}
