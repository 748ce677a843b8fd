// Package diagnostics serves the spec §6 Stats API over HTTP: per-source
// and per-sink counters, plus a bounded LRU of recently-active names so
// the endpoint doesn't have to walk the whole registry on every poll.
// The LRU generalizes the teacher's PeerEnricher cache-aside pattern
// (internal/service/peer_enricher.go) from peer-profile lookups to
// fabric identity bookkeeping.
package diagnostics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/INemesisI/weave/internal/fabric"
)

// trackedSource pairs a name with the fabric.Source it belongs to, for
// stats reporting.
type trackedSource struct {
	name string
	src  *fabric.Source
}

type trackedSink struct {
	name string
	sink *fabric.Sink
}

// Registry collects named sources and sinks whose stats should be
// exposed, and recently-seen activity for the name cache. It is
// intentionally separate from fabric.Registry: not every wired
// connection needs diagnostics visibility.
type Registry struct {
	mu      sync.Mutex
	sources []trackedSource
	sinks   []trackedSink

	recent *lru.Cache[string, time.Time]
}

// NewRegistry builds a diagnostics registry whose recent-activity cache
// holds at most cacheSize names.
func NewRegistry(cacheSize int) *Registry {
	cache, _ := lru.New[string, time.Time](cacheSize)
	return &Registry{recent: cache}
}

// TrackSource registers src under name for stats reporting.
func (r *Registry) TrackSource(name string, src *fabric.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, trackedSource{name: name, src: src})
}

// TrackSink registers sink under name for stats reporting.
func (r *Registry) TrackSink(name string, sink *fabric.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, trackedSink{name: name, sink: sink})
}

// Touch records activity against name in the recent-activity cache,
// evicting the least-recently-used entry once cacheSize is exceeded.
func (r *Registry) Touch(name string) {
	r.recent.Add(name, time.Now())
}

type sourceStat struct {
	Name           string `json:"name"`
	SendCount      uint64 `json:"send_count"`
	DeliveredTotal uint64 `json:"delivered_total"`
}

type sinkStat struct {
	Name         string `json:"name"`
	HandledCount uint64 `json:"handled_count"`
	DroppedCount uint64 `json:"dropped_count"`
}

type statsResponse struct {
	Sources         []sourceStat `json:"sources"`
	Sinks           []sinkStat   `json:"sinks"`
	RecentlyActive  []string     `json:"recently_active"`
}

// ServeHTTP renders the current stats snapshot as JSON (spec §6 Stats
// API's get_stats, surfaced over HTTP rather than an in-process call
// since this package exists for operators, not library callers).
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	resp := statsResponse{
		Sources: make([]sourceStat, len(r.sources)),
		Sinks:   make([]sinkStat, len(r.sinks)),
	}
	for i, s := range r.sources {
		resp.Sources[i] = sourceStat{
			Name:           s.name,
			SendCount:      s.src.Stats().SendCount(),
			DeliveredTotal: s.src.Stats().DeliveredTotal(),
		}
	}
	for i, s := range r.sinks {
		resp.Sinks[i] = sinkStat{
			Name:         s.name,
			HandledCount: s.sink.Stats().HandledCount(),
			DroppedCount: s.sink.Stats().DroppedCount(),
		}
	}
	r.mu.Unlock()

	for _, key := range r.recent.Keys() {
		resp.RecentlyActive = append(resp.RecentlyActive, key)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
