// Package core defines core data structures with zero external dependencies.
package core

import (
	"fmt"
	"time"
)

// Packet is the reader-independent projection of one captured frame.
// It holds no reference to frame bytes and is stored by value.
type Packet struct {
	TS      int64  // absolute timestamp, nanoseconds, local offset applied
	CapLen  uint32 // captured length
	OrigLen uint32 // original length on the wire
	Seq     uint64 // monotonic sequence number
}

// Event is a completed detection printed as one line of output.
type Event interface {
	fmt.Stringer
	Kind() string
}

// BurstEvent is emitted by the sliding-window detector when a burst ends.
type BurstEvent struct {
	Start    int64 // ns
	Duration int64 // ns
	PeakBps  float64
	MeanBps  float64
	Variance float64 // of the bps samples, not printed
	Packets  uint64
	Bytes    uint64
}

// Kind implements Event.
func (e BurstEvent) Kind() string { return "burst" }

func (e BurstEvent) String() string {
	return fmt.Sprintf("Burst start=%s peak=%.3fGbps mean=%.3fGbps duration=%dns pkts=%d bytes=%d",
		FormatTimestamp(e.Start), e.PeakBps/1e9, e.MeanBps/1e9, e.Duration, e.Packets, e.Bytes)
}

// ClusterEvent is emitted by the gap detector when a cluster closes.
type ClusterEvent struct {
	Index    uint64
	Start    int64 // ns
	Duration int64 // ns, first to last packet of the cluster
	Packets  uint64
}

// Kind implements Event.
func (e ClusterEvent) Kind() string { return "cluster" }

func (e ClusterEvent) String() string {
	return fmt.Sprintf("Burst[%d]: %d %dus", e.Index, e.Packets, e.Duration/1000)
}

// FormatTimestamp renders an absolute nanosecond timestamp. The local
// offset is already folded into ts, so it is rendered as UTC wall time.
func FormatTimestamp(ts int64) string {
	return time.Unix(0, ts).UTC().Format("2006-01-02 15:04:05.000000000")
}
