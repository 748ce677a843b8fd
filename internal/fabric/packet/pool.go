package packet

import (
	"sync/atomic"
	"time"

	"github.com/INemesisI/weave/internal/fabric"
)

// Pool is a fixed-capacity buffer allocator (spec §4.4). Capacity never
// grows: once all buffers are checked out, Alloc blocks (or fails,
// depending on timeout) until one is released, the same fixed-pool
// discipline spec §1's Non-goals extend to packet buffers ("dynamic
// memory allocation beyond a small fixed connection pool").
type Pool struct {
	name    string
	bufSize int
	hires   bool // PACKET_TIMESTAMP_HIRES: widen Timestamp to 64-bit cycle-ish count

	counter uint32 // atomic fetch-add, wraps into Metadata.Counter (uint16)

	free chan *Buffer

	destructor func(*Buffer)
}

// NewPool allocates capacity buffers of bufSize bytes each, eagerly, up
// front — this is the pool's entire lifetime allocation. destructor, if
// non-nil, runs once per buffer on its final release (spec §4.4's
// "final release invokes the payload's destructor").
func NewPool(name string, capacity, bufSize int, hires bool, destructor func(*Buffer)) *Pool {
	p := &Pool{
		name:       name,
		bufSize:    bufSize,
		hires:      hires,
		free:       make(chan *Buffer, capacity),
		destructor: destructor,
	}
	for i := 0; i < capacity; i++ {
		p.free <- &Buffer{data: make([]byte, bufSize), pool: p}
	}
	return p
}

func (p *Pool) Name() string { return p.name }

// Alloc returns a buffer stamped with PacketID == AnyID (spec §4.4).
// timeout follows the fabric.Queue convention: 0 is non-blocking,
// fabric.Indefinite waits forever, anything else is a bounded wait.
func (p *Pool) Alloc(timeout time.Duration) (*Buffer, error) {
	return p.AllocWithID(AnyID, timeout)
}

// AllocWithID additionally stamps PacketID == id (spec §4.4).
func (p *Pool) AllocWithID(id uint8, timeout time.Duration) (*Buffer, error) {
	buf, err := p.get(timeout)
	if err != nil {
		return nil, err
	}
	buf.refs = 1
	buf.Metadata = Metadata{
		PacketID: id,
		ClientID: 0,
		Counter:  uint16(atomic.AddUint32(&p.counter, 1) - 1),
		Timestamp: func() uint64 {
			if p.hires {
				return uint64(time.Now().UnixNano())
			}
			return uint64(uint32(time.Now().Unix()))
		}(),
	}
	return buf, nil
}

func (p *Pool) get(timeout time.Duration) (*Buffer, error) {
	if timeout == 0 {
		select {
		case b := <-p.free:
			return b, nil
		default:
			return nil, fabric.ErrTimeout
		}
	}
	if timeout == fabric.Indefinite {
		return <-p.free, nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case b := <-p.free:
		return b, nil
	case <-t.C:
		return nil, fabric.ErrTimeout
	}
}

func (p *Pool) put(b *Buffer) {
	// Capacity never changes after NewPool, so this can never block:
	// every buffer originates from exactly this channel.
	p.free <- b
}
