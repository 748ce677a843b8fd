package fabric

import "time"

// SinkSend delivers payload directly to sink, bypassing any Source's
// connection list (spec §6 Consumer API). The caller supplies ops
// directly since there is no Source to own one. Returns nil on
// successful delivery (immediate invoke-and-unref, or successful
// enqueue with unref deferred to Process), ErrQueueFull if a queued
// sink could not admit the event in time, or the RefFunc's error for a
// sink-level ref failure. A filtered sink returns IsFiltered(err) ==
// true, not a delivery and not a failure.
func SinkSend(sink *Sink, payload any, ops *Ops, timeout time.Duration) error {
	if sink == nil || payload == nil {
		return ErrInvalidArgument
	}
	return deliverToQueueOrHandler(sink, payload, ops, timeout)
}
