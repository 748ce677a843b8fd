// Package method implements the RPC primitive from spec §4.6: a Method
// is a Sink whose payload is a CallContext, dispatched synchronously or
// asynchronously over the same Source/Sink/Queue machinery the rest of
// the fabric uses.
package method

import (
	"time"

	"github.com/INemesisI/weave/internal/fabric"
)

// Handler implements the user-supplied RPC body: mutate resp in place
// and return a non-nil error for a failed call. Handler runs on whatever
// goroutine drains the method's sink — the caller's own goroutine for an
// Immediate method, a dedicated drain loop for a Queued one. Spec §9
// notes the deadlock hazard explicitly: a Queued method must never be
// drained by the same goroutine that calls it.
type Handler[Req, Resp any] func(req Req, resp *Resp) error

// CallContext is the per-call record carried as the sink's payload (spec
// §4.6). For a synchronous Call it lives on the calling goroutine's
// stack in spirit (Go's escape analysis will heap-allocate it, same as
// any value whose address crosses a channel send); for CallAsync the
// caller owns it and must keep it alive until Wait returns.
type CallContext[Req, Resp any] struct {
	Request  Req
	Response Resp
	Result   error

	done chan struct{}
}

func newCallContext[Req, Resp any](req Req) *CallContext[Req, Resp] {
	return &CallContext[Req, Resp]{Request: req, done: make(chan struct{})}
}

// Wait blocks until the handler has run and signaled completion, up to
// timeout (spec §4.6 "wait(caller_ctx, timeout)"). timeout == 0 polls
// without blocking; fabric.Indefinite waits forever. Returns
// fabric.ErrTimeout if the call has not completed in time — the context
// remains valid to Wait on again afterward.
func (c *CallContext[Req, Resp]) Wait(timeout time.Duration) error {
	if timeout == 0 {
		select {
		case <-c.done:
			return nil
		default:
			return fabric.ErrTimeout
		}
	}
	if timeout == fabric.Indefinite {
		<-c.done
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-c.done:
		return nil
	case <-t.C:
		return fabric.ErrTimeout
	}
}

// Method is a static RPC descriptor (spec §4.6): a handler wrapped in a
// Sink. queueCapacity == 0 builds an Immediate method, where the handler
// runs on the caller's own goroutine during Call/CallAsync's admission
// send; any positive capacity builds a Queued method, requiring a
// separate drain loop (see fabric.RunDrainLoop) on another goroutine.
type Method[Req, Resp any] struct {
	name string
	sink *fabric.Sink
}

// New builds a Method around handler.
func New[Req, Resp any](name string, queueCapacity int, handler Handler[Req, Resp]) *Method[Req, Resp] {
	dispatch := func(payload any, _ any) {
		ctx := payload.(*CallContext[Req, Resp])
		ctx.Result = handler(ctx.Request, &ctx.Response)
		close(ctx.done)
	}
	var sink *fabric.Sink
	if queueCapacity == 0 {
		sink = fabric.NewImmediateSink(name, dispatch, nil)
	} else {
		sink = fabric.NewQueuedSink(name, dispatch, nil, queueCapacity)
	}
	return &Method[Req, Resp]{name: name, sink: sink}
}

// Sink exposes the underlying fabric.Sink — wire it into a Registry the
// same as any other connection, or hand its Queue to RunDrainLoop.
func (m *Method[Req, Resp]) Sink() *fabric.Sink { return m.sink }

// Call is the synchronous entry point (spec §4.6 "call"): send admits
// with an unbounded wait (the caller is the context's only owner, so
// there is nothing to time out on), then Wait blocks indefinitely for
// the handler's completion signal. Admission failure (ErrNotSupported
// for a malformed sink) is the only way Call returns early without the
// handler having run.
func (m *Method[Req, Resp]) Call(req Req) (Resp, error) {
	ctx := newCallContext[Req, Resp](req)
	if err := fabric.SinkSend(m.sink, ctx, nil, fabric.Indefinite); err != nil {
		var zero Resp
		return zero, err
	}
	_ = ctx.Wait(fabric.Indefinite)
	return ctx.Response, ctx.Result
}

// CallAsync is the asynchronous entry point (spec §4.6 "call_async"):
// admit with admitTimeout (0 for non-blocking, fabric.Indefinite to
// match Call's unbounded admission), then return immediately. The
// returned context must outlive the eventual Wait call.
func (m *Method[Req, Resp]) CallAsync(req Req, admitTimeout time.Duration) (*CallContext[Req, Resp], error) {
	ctx := newCallContext[Req, Resp](req)
	if err := fabric.SinkSend(m.sink, ctx, nil, admitTimeout); err != nil {
		return nil, err
	}
	return ctx, nil
}
