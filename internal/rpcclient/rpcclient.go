// Package rpcclient wraps a synchronous method.Call with a circuit
// breaker so a caller stops hammering a stalled method sink once its
// failure rate crosses a threshold — a resilience concern the teacher's
// go.mod carries (go.mod lists sony/gobreaker) without exercising it in
// any retrieved file; this package gives it a home around the fabric's
// own RPC primitive.
package rpcclient

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/INemesisI/weave/internal/fabric/method"
)

// Client wraps method.Method[Req, Resp].Call with a gobreaker
// CircuitBreaker. Once the breaker trips, Call fails fast with
// gobreaker.ErrOpenState instead of blocking on an unbounded queue
// admission wait against a method sink that is no longer draining.
type Client[Req, Resp any] struct {
	m  *method.Method[Req, Resp]
	cb *gobreaker.CircuitBreaker
}

// New builds a Client around m. name identifies the breaker in metrics
// and logs; openTimeout is how long the breaker stays open once tripped
// before allowing a single probe request through.
func New[Req, Resp any](name string, m *method.Method[Req, Resp], openTimeout time.Duration) *Client[Req, Resp] {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Client[Req, Resp]{m: m, cb: cb}
}

// Call invokes the underlying method through the circuit breaker,
// returning gobreaker.ErrOpenState without attempting the call at all
// when the breaker is open.
func (c *Client[Req, Resp]) Call(req Req) (Resp, error) {
	result, err := c.cb.Execute(func() (any, error) {
		resp, callErr := c.m.Call(req)
		return resp, callErr
	})
	if err != nil {
		var zero Resp
		return zero, err
	}
	return result.(Resp), nil
}
