package fabric

// Connection is an immutable pairing of one Source with one Sink (spec
// §3). It is linked into exactly one source's connection list at a
// time — either the static registry's list (lifetime = program) or a
// dynamic pool slot (lifetime = from Connect to Disconnect).
type Connection struct {
	Source *Source
	Sink   *Sink

	// dynamic is true for connections created through Connect/Disconnect;
	// false for ones walked in from the static registry at Init.
	dynamic bool

	// slot is the index into the owning Registry's dynamic pool, or -1
	// for static connections that own no pool slot.
	slot int
}
