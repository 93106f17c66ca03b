// Package metrics tracks process-wide counters for the stats endpoint.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds the relay's runtime counters. Created once at startup
// and injected into the components that mutate it; all state is
// memory-resident and resets on restart.
type Metrics struct {
	totalRequests atomic.Int64
	activeStreams atomic.Int64
	cacheHits     atomic.Int64
	startTime     time.Time
}

// New creates a Metrics instance with the uptime clock started.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() { m.totalRequests.Add(1) }

// IncStreams marks a playlist stream as active.
func (m *Metrics) IncStreams() { m.activeStreams.Add(1) }

// DecStreams marks a playlist stream as finished.
func (m *Metrics) DecStreams() { m.activeStreams.Add(-1) }

// IncCacheHits increments the resolution cache hit counter.
func (m *Metrics) IncCacheHits() { m.cacheHits.Add(1) }

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	TotalRequests int64
	ActiveStreams int64
	CacheHits     int64
	Uptime        time.Duration
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TotalRequests: m.totalRequests.Load(),
		ActiveStreams: m.activeStreams.Load(),
		CacheHits:     m.cacheHits.Load(),
		Uptime:        time.Since(m.startTime),
	}
}
