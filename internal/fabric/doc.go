/*
Package fabric is the distribution and delivery engine underlying
Weave: a source emits a payload, the engine walks the source's
connection list applying per-sink reference counting and filtering, and
delivers either synchronously in the caller's goroutine (Immediate
sinks) or by enqueuing onto a bounded per-sink queue drained later
(Queued sinks).

Key invariant: every successful Ref is paired with exactly one Unref,
whether delivery happened inline during Emit or later during Process.

Packets, Observables, and Methods (the fabric/packet, fabric/observable,
and fabric/method packages) are all built on top of Source, Sink, and
Emit — they supply their own Ops and never reach into the engine's
internals.
*/
package fabric
