package fabric

// HandlerFunc is invoked with a borrowed payload whose reference is
// held for the duration of the call (spec §6 Handler contract).
// Handlers must not release the reference themselves; any additional
// retention requires an explicit extra Ref from the handler's own
// code, outside the engine.
type HandlerFunc func(payload any, userData any)

// Mode is a Sink's execution mode, a property of the sink itself and
// not of the source or the call site (spec §3).
type Mode int

const (
	// Immediate runs the handler in the emitter's goroutine during Emit.
	Immediate Mode = iota
	// Queued pushes an Event onto the sink's Queue; a consumer
	// goroutine drains it later via Process.
	Queued
)

// Sink is a receive endpoint: a handler, its user-data, and an
// execution mode (spec §3).
type Sink struct {
	name     string
	handler  HandlerFunc
	userData any
	mode     Mode
	queue    *Queue

	stats *SinkStats
}

// NewImmediateSink builds a sink whose handler runs synchronously in
// the emitter's context.
func NewImmediateSink(name string, handler HandlerFunc, userData any) *Sink {
	return &Sink{name: name, handler: handler, userData: userData, mode: Immediate, stats: &SinkStats{}}
}

// NewQueuedSink builds a sink backed by a bounded queue of the given
// capacity, drained later by Process.
func NewQueuedSink(name string, handler HandlerFunc, userData any, queueCapacity int) *Sink {
	return &Sink{
		name:     name,
		handler:  handler,
		userData: userData,
		mode:     Queued,
		queue:    NewQueue(name, queueCapacity),
		stats:    &SinkStats{},
	}
}

func (s *Sink) Name() string      { return s.name }
func (s *Sink) Mode() Mode        { return s.mode }
func (s *Sink) Queue() *Queue     { return s.queue }
func (s *Sink) Stats() *SinkStats { return s.stats }

// UserData exposes the sink's user-data pointer to PayloadOps
// implementations that need to carry per-sink configuration — e.g. the
// packet package's per-sink ID filter binding (spec §4.4) — without the
// engine itself knowing anything about it.
func (s *Sink) UserData() any { return s.userData }

func (s *Sink) invoke(payload any) {
	if s.handler != nil {
		s.handler(payload, s.userData)
	}
}
