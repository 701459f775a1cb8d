package detector

import (
	"math"

	"firestige.xyz/microburst/internal/core"
)

const (
	WindowName = "window"

	// referenceLineRate is the link speed used to account for the
	// serialization time of the newest packet.
	referenceLineRate = 10e9
)

// WindowConfig configures the sliding-window bandwidth detector.
type WindowConfig struct {
	TimeBinNS     int64   `mapstructure:"time_bin_ns"`
	ThresholdBps  float64 `mapstructure:"threshold_bps"`
	MinDurationNS int64   `mapstructure:"min_duration_ns"`
	MinBytes      uint64  `mapstructure:"min_bytes"`
	RingCapacity  int     `mapstructure:"ring_capacity"`
}

// DefaultWindowConfig returns the stock window settings.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		TimeBinNS:     1000,
		ThresholdBps:  1e9,
		MinDurationNS: 0,
		MinBytes:      128 * 1024,
		RingCapacity:  1 << 20,
	}
}

// burstState accumulates statistics while the window is above threshold.
type burstState struct {
	start   int64
	peak    float64
	sum     float64
	sumSq   float64
	count   uint64
	bytes   uint64
	packets uint64
}

// Window tracks the bandwidth of the packets inside a trailing time bin and
// reports a burst when it rises above the threshold and falls back.
type Window struct {
	cfg  WindowConfig
	ring *ring

	packets uint64
	bytes   uint64

	inBurst   bool
	burst     burstState
	overflows uint64
}

func NewWindow(cfg WindowConfig) *Window {
	return &Window{
		cfg:  cfg,
		ring: newRing(cfg.RingCapacity),
	}
}

func (w *Window) Name() string { return WindowName }

func (w *Window) Observe(p core.Packet) (core.Event, bool) {
	// Keep one packet older than the bin as the anchor for the span.
	for w.ring.Len() > 1 && p.TS-w.ring.Oldest().TS >= w.cfg.TimeBinNS {
		w.evict()
	}
	if w.ring.Full() {
		w.evict()
		w.overflows++
	}
	w.ring.Push(p)
	w.packets++
	w.bytes += uint64(p.CapLen)

	bps := windowBandwidth(w.bytes, w.ring.Newest().TS-w.ring.Oldest().TS, p.CapLen)

	if bps > w.cfg.ThresholdBps {
		if !w.inBurst {
			w.inBurst = true
			w.burst = burstState{start: p.TS}
		}
		b := &w.burst
		b.peak = math.Max(b.peak, bps)
		b.sum += bps
		b.sumSq += bps * bps
		b.count++
		b.bytes += uint64(p.CapLen)
		b.packets++
		return nil, false
	}

	if !w.inBurst {
		return nil, false
	}
	w.inBurst = false
	return w.close(p.TS - w.burst.start)
}

// Flush reports the burst in progress, measured up to the newest packet.
func (w *Window) Flush() (core.Event, bool) {
	if !w.inBurst || w.ring.Len() == 0 {
		return nil, false
	}
	w.inBurst = false
	return w.close(w.ring.Newest().TS - w.burst.start)
}

func (w *Window) close(duration int64) (core.Event, bool) {
	b := w.burst
	w.burst = burstState{}
	if duration <= w.cfg.MinDurationNS || b.bytes <= w.cfg.MinBytes {
		return nil, false
	}

	n := float64(b.count)
	mean := b.sum / n
	variance := b.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return core.BurstEvent{
		Start:    b.start,
		Duration: duration,
		PeakBps:  b.peak,
		MeanBps:  mean,
		Variance: variance,
		Packets:  b.packets,
		Bytes:    b.bytes,
	}, true
}

func (w *Window) evict() {
	old := w.ring.Pop()
	w.packets--
	w.bytes -= uint64(old.CapLen)
}

// windowBandwidth is the bit rate of bytes spread over span plus the time
// the newest packet takes on the wire.
func windowBandwidth(bytes uint64, span int64, capLen uint32) float64 {
	dt := float64(span) + float64(capLen)*8*float64(core.NanosPerSecond)/referenceLineRate
	return 8 * float64(bytes) * core.SafeInverse(dt/float64(core.NanosPerSecond))
}

func (w *Window) WindowPackets() uint64 { return w.packets }

func (w *Window) WindowBytes() uint64 { return w.bytes }

func (w *Window) InBurst() bool { return w.inBurst }

// Overflows counts packets evicted only because the ring was full.
func (w *Window) Overflows() uint64 { return w.overflows }
