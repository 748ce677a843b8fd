package fabric

import "errors"

// Distinguished error discriminants from spec §7. Filtered never escapes
// Emit: it is the signal a RefFunc returns (via Filter()) to mean "skip
// this sink", folded into delivered_count instead of surfaced as an
// error. SinkSend does return it to its caller; test it with IsFiltered.
var (
	ErrInvalidArgument  = errors.New("fabric: invalid argument")
	ErrQueueFull        = errors.New("fabric: queue full")
	ErrNotSupported     = errors.New("fabric: sink not supported")
	ErrTimeout          = errors.New("fabric: timeout")
	ErrAlreadyConnected = errors.New("fabric: already connected")
	ErrNoEntry          = errors.New("fabric: no such connection")
	ErrOutOfMemory      = errors.New("fabric: connection pool exhausted")

	errFiltered = errors.New("fabric: filtered")
)
