package fabric

import "sync/atomic"

// SourceStats are the optional per-source counters from spec §6 Stats
// API. They are monotone atomic single-word counters, cheap enough to
// always update; they are kept whatever the config STATS key says.
type SourceStats struct {
	sendCount      uint64
	deliveredTotal uint64
}

func (s *SourceStats) recordSend()               { atomic.AddUint64(&s.sendCount, 1) }
func (s *SourceStats) recordDelivered(n uint64)   { atomic.AddUint64(&s.deliveredTotal, n) }
func (s *SourceStats) SendCount() uint64          { return atomic.LoadUint64(&s.sendCount) }
func (s *SourceStats) DeliveredTotal() uint64     { return atomic.LoadUint64(&s.deliveredTotal) }
func (s *SourceStats) Reset() {
	atomic.StoreUint64(&s.sendCount, 0)
	atomic.StoreUint64(&s.deliveredTotal, 0)
}

// SinkStats are the optional per-sink counters from spec §6.
type SinkStats struct {
	handledCount uint64
	droppedCount uint64
}

func (s *SinkStats) recordHandled()           { atomic.AddUint64(&s.handledCount, 1) }
func (s *SinkStats) recordDropped()           { atomic.AddUint64(&s.droppedCount, 1) }
func (s *SinkStats) HandledCount() uint64     { return atomic.LoadUint64(&s.handledCount) }
func (s *SinkStats) DroppedCount() uint64     { return atomic.LoadUint64(&s.droppedCount) }
func (s *SinkStats) Reset() {
	atomic.StoreUint64(&s.handledCount, 0)
	atomic.StoreUint64(&s.droppedCount, 0)
}
