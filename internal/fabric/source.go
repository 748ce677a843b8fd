package fabric

import "sync"

// Source is an emit endpoint: a list of outgoing Connections, an
// optional Ops, and a lock covering the list (spec §3).
//
// The source's list is guarded by a plain sync.Mutex. Spec §9 calls
// this out as a "spinlock" in the C original; Go's runtime-integrated
// mutex already parks the calling goroutine instead of busy-spinning
// under contention, which is the idiomatic equivalent here, and nothing
// in the reference corpus hand-rolls a spinlock. The lock is held only
// while the connection slice is read or mutated — never across handler
// invocation — following the safer redesign spec §9 names explicitly:
// snapshot the list, release the lock, then deliver.
type Source struct {
	name string
	ops  *Ops

	mu    sync.Mutex
	conns []*Connection

	stats *SourceStats
}

// NewSource builds a source with the given PayloadOps. ops may be nil
// for payloads that need no lifecycle management, in which case the
// source may carry at most one outgoing connection (spec §3).
func NewSource(name string, ops *Ops) *Source {
	return &Source{name: name, ops: ops, stats: &SourceStats{}}
}

func (s *Source) Name() string      { return s.name }
func (s *Source) Ops() *Ops         { return s.ops }
func (s *Source) Stats() *SourceStats { return s.stats }

// snapshot returns a copy of the current connection slice, taken under
// the lock. The caller delivers against the copy after releasing the
// lock, so handlers invoked during delivery may freely call Emit again
// (on this source or any other) without deadlocking on s.mu.
func (s *Source) snapshot() []*Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Connection, len(s.conns))
	copy(out, s.conns)
	return out
}

func (s *Source) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// link appends a connection to this source's list. Callers must have
// already set conn.Source == s.
func (s *Source) link(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns = append(s.conns, conn)
}

// unlink removes conn from this source's list, preserving the
// insertion order of every remaining connection. Disconnect is O(list
// length): a linear scan to find the slot, the same bound Connect's
// duplicate check already pays.
func (s *Source) unlink(conn *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.conns {
		if c == conn {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return true
		}
	}
	return false
}

// findSink returns the existing connection to sink, if any, scanning
// the list under s.mu. The lock is released before it returns, so a
// concurrent link/unlink may change the list right afterward.
func (s *Source) findSink(sink *Sink) *Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		if c.Sink == sink {
			return c
		}
	}
	return nil
}
