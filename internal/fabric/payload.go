package fabric

// RefFunc takes an additional reference on payload for the given sink.
// A nil return means the reference was taken and must be balanced by
// exactly one UnrefFunc call. Returning Filter() means "skip this sink"
// — not a failure, not a delivery, and it never calls UnrefFunc because
// no reference was taken. Any other non-nil error is a sink-level
// failure: the caller still does not call UnrefFunc (no reference was
// taken), and delivery to that sink is abandoned.
type RefFunc func(payload any, sink *Sink) error

// UnrefFunc releases one reference taken by a prior successful RefFunc
// call. The final release runs the payload's own destructor, if any;
// that is PayloadOps's business, not the engine's.
type UnrefFunc func(payload any)

// Ops is the pluggable pair of lifecycle callbacks a Source hands to
// every payload it emits. Either field may be nil, meaning "no-op": a
// nil Ref always admits the sink, a nil Unref does nothing. A Source
// with an entirely nil Ops may only ever have one outgoing Connection —
// spec §3: "no ref-counting available to fan out".
type Ops struct {
	Ref   RefFunc
	Unref UnrefFunc
}

// RestrictsFanout reports whether a Source carrying these Ops may only
// ever have one outgoing Connection (spec §3: "no ref-counting
// available to fan out"). That restriction keys off the Ops pointer
// itself being nil, not off its Ref/Unref fields being nil: Observable
// deliberately hands its internal source a non-nil *Ops with no-op callbacks (spec
// §4.5) precisely to opt back into unrestricted fan-out while keeping
// Ref/Unref as no-ops, since an obs pointer needs no reference
// counting at all.
func (o *Ops) RestrictsFanout() bool {
	return o == nil
}

func (o *Ops) ref(payload any, sink *Sink) error {
	if o == nil || o.Ref == nil {
		return nil
	}
	return o.Ref(payload, sink)
}

func (o *Ops) unref(payload any) {
	if o == nil || o.Unref == nil {
		return
	}
	o.Unref(payload)
}

// Filter is the distinguished "skip this sink" return value for a
// RefFunc. It is never returned to a caller of Emit — Emit folds it
// into a smaller delivered_count instead of an error.
func Filter() error { return errFiltered }

// IsFiltered reports whether err is the Filter() discriminant.
func IsFiltered(err error) bool { return err == errFiltered }
