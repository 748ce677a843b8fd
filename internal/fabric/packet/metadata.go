package packet

// AnyID is the filter sentinel meaning "match every packet_id" (spec
// §9: the newer, uint8-width design's ANY sentinel is 0xFF).
const AnyID uint8 = 0xFF

// Metadata is the packed trailing region stamped onto every buffer
// allocated from a Pool: packet_id, client_id, a pool-wide wrapping
// counter, and a timestamp whose width depends on the
// PACKET_TIMESTAMP_HIRES config key (spec §4.4, §6).
//
// The wire layout is [u8 packet_id][u8 client_id][u16 counter][u32 or
// u64 timestamp], natural alignment, packed. In this Go port Metadata
// is the buffer trailer's in-memory representation directly — there is
// no separate encode/decode step, since the buffer never crosses a
// process boundary (spec §1 Non-goals: no network transport, no
// serialization format).
type Metadata struct {
	PacketID  uint8
	ClientID  uint8
	Counter   uint16
	Timestamp uint64
}

// zero is the all-bytes-zero sentinel used to detect a buffer that was
// never stamped by a Pool — spec §4.4's "uninitialized metadata block"
// heuristic. PacketID, ClientID and Counter can all be 0 on a genuine
// allocation (AllocWithID(0, ...) on a fresh pool), but Alloc/AllocWithID
// always stamp a non-zero wall-clock Timestamp, so the all-zero value
// does not occur from them.
func (m Metadata) isZero() bool {
	return m == Metadata{}
}
