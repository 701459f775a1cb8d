// Package report aggregates detected events into an end-of-run summary.
package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"firestige.xyz/microburst/internal/core"
)

// Summary collects events as they are emitted.
type Summary struct {
	bursts    uint64
	clusters  uint64
	packets   uint64
	bytes     uint64
	peaks     []float64
	durations []float64
}

func NewSummary() *Summary {
	return &Summary{}
}

// Add records one event.
func (s *Summary) Add(ev core.Event) {
	switch e := ev.(type) {
	case core.BurstEvent:
		s.bursts++
		s.packets += e.Packets
		s.bytes += e.Bytes
		s.peaks = append(s.peaks, e.PeakBps)
		s.durations = append(s.durations, float64(e.Duration))
	case core.ClusterEvent:
		s.clusters++
		s.packets += e.Packets
		s.durations = append(s.durations, float64(e.Duration))
	}
}

// Result is the aggregated view of a run.
type Result struct {
	Bursts   uint64
	Clusters uint64
	Packets  uint64
	Bytes    uint64

	MeanPeakBps   float64
	StdDevPeakBps float64

	MedianDurationNS float64
	P99DurationNS    float64
	MaxDurationNS    float64
}

// Result computes the summary. Statistics that need more samples than were
// seen are left at zero.
func (s *Summary) Result() Result {
	r := Result{
		Bursts:   s.bursts,
		Clusters: s.clusters,
		Packets:  s.packets,
		Bytes:    s.bytes,
	}

	if len(s.peaks) > 0 {
		r.MeanPeakBps = stat.Mean(s.peaks, nil)
	}
	if len(s.peaks) > 1 {
		r.StdDevPeakBps = stat.StdDev(s.peaks, nil)
	}

	if n := len(s.durations); n > 0 {
		sorted := make([]float64, n)
		copy(sorted, s.durations)
		sort.Float64s(sorted)
		r.MedianDurationNS = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		r.P99DurationNS = stat.Quantile(0.99, stat.Empirical, sorted, nil)
		r.MaxDurationNS = sorted[n-1]
	}
	return r
}

// Fields renders r as log fields.
func (r Result) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"packets":         r.Packets,
		"median_duration": formatNS(r.MedianDurationNS),
		"p99_duration":    formatNS(r.P99DurationNS),
		"max_duration":    formatNS(r.MaxDurationNS),
	}
	if r.Clusters > 0 {
		fields["clusters"] = r.Clusters
	}
	if r.Bursts > 0 || r.Clusters == 0 {
		fields["bursts"] = r.Bursts
		fields["bytes"] = formatBytes(r.Bytes)
		fields["mean_peak_gbps"] = formatGbps(r.MeanPeakBps)
		fields["stddev_peak_gbps"] = formatGbps(r.StdDevPeakBps)
	}
	return fields
}
