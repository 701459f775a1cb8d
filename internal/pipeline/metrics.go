// Package pipeline implements pipeline metrics.
package pipeline

import (
	"sync/atomic"
)

// Metrics contains per-run counters.
type Metrics struct {
	RunID string

	// Packet counters (using atomic for thread-safety)
	Received atomic.Uint64
	Bytes    atomic.Uint64
	Filtered atomic.Uint64
	Skipped  atomic.Uint64
	Observed atomic.Uint64
	Events   atomic.Uint64

	// Overflows mirrors the detector's forced evictions, if it has any.
	Overflows atomic.Uint64
}

// NewMetrics creates a new metrics instance.
func NewMetrics(runID string) *Metrics {
	return &Metrics{RunID: runID}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Received: m.Received.Load(),
		Bytes:    m.Bytes.Load(),
		Filtered: m.Filtered.Load(),
		Skipped:  m.Skipped.Load(),
		Observed: m.Observed.Load(),
		Events:   m.Events.Load(),

		Overflows: m.Overflows.Load(),
	}
}

// Stats represents pipeline statistics.
type Stats struct {
	Received uint64
	Bytes    uint64
	Filtered uint64
	Skipped  uint64
	Observed uint64
	Events   uint64

	Overflows uint64
}

func (s Stats) Fields() map[string]interface{} {
	return map[string]interface{}{
		"received": s.Received,
		"bytes":    s.Bytes,
		"filtered": s.Filtered,
		"skipped":  s.Skipped,
		"observed": s.Observed,
		"events":   s.Events,

		"overflows": s.Overflows,
	}
}
