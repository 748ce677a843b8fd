package packet

import "sync/atomic"

// Buffer is a reference-counted network buffer drawn from a Pool's
// fixed capacity (spec §3, §4.4). Its trailing Metadata is stamped at
// allocation time and cleared when the buffer is finally released back
// to the pool.
type Buffer struct {
	data []byte
	// Metadata is the packed trailer described in metadata.go. It is
	// exported for read access by handlers; mutating it directly
	// outside the allocator voids the all-zeros "owned by this
	// allocator" heuristic spec §4.4 relies on.
	Metadata Metadata

	refs int32
	pool *Pool
}

// Data returns the buffer's payload bytes, excluding the metadata
// trailer.
func (b *Buffer) Data() []byte { return b.data }

// HasMetadata reports whether this buffer's trailer passes the
// all-zeros "uninitialized" test from spec §4.4 — false means the
// buffer was never stamped by a Pool allocator (or was already
// released), guarding callers that might otherwise accept a raw buffer
// obtained some other way.
func (b *Buffer) HasMetadata() bool {
	return !b.Metadata.isZero()
}

func (b *Buffer) addRef() {
	atomic.AddInt32(&b.refs, 1)
}

// release drops one reference; on the final release it runs the
// pool's destructor (if any), clears the metadata trailer, and returns
// the buffer to the pool's free list.
func (b *Buffer) release() {
	if atomic.AddInt32(&b.refs, -1) != 0 {
		return
	}
	if b.pool.destructor != nil {
		b.pool.destructor(b)
	}
	b.Metadata = Metadata{}
	b.pool.put(b)
}
