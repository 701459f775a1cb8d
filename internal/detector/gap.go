package detector

import "firestige.xyz/microburst/internal/core"

const GapName = "gap"

// GapConfig configures the gap-clustering detector.
type GapConfig struct {
	// GapNS is the silence that separates two clusters.
	GapNS int64 `mapstructure:"gap_ns"`
}

func DefaultGapConfig() GapConfig {
	return GapConfig{GapNS: 20000}
}

// Gap groups packets into clusters separated by silences longer than GapNS.
type Gap struct {
	cfg GapConfig

	started bool
	index   uint64
	count   uint64
	start   int64
	last    int64
}

func NewGap(cfg GapConfig) *Gap {
	return &Gap{cfg: cfg}
}

func (g *Gap) Name() string { return GapName }

func (g *Gap) Observe(p core.Packet) (core.Event, bool) {
	if !g.started {
		g.started = true
		g.count, g.start, g.last = 1, p.TS, p.TS
		return nil, false
	}

	var (
		ev core.Event
		ok bool
	)
	if p.TS-g.last > g.cfg.GapNS {
		g.index++
		if g.count > 0 {
			ev, ok = g.event(), true
		}
		g.count, g.start = 1, p.TS
	} else {
		g.count++
	}
	g.last = p.TS
	return ev, ok
}

// Flush reports the open cluster and resets the detector.
func (g *Gap) Flush() (core.Event, bool) {
	if !g.started || g.count == 0 {
		return nil, false
	}
	g.index++
	ev := g.event()
	g.count = 0
	return ev, true
}

func (g *Gap) event() core.ClusterEvent {
	return core.ClusterEvent{
		Index:    g.index,
		Start:    g.start,
		Duration: g.last - g.start,
		Packets:  g.count,
	}
}

// Clusters is the number of clusters closed so far.
func (g *Gap) Clusters() uint64 { return g.index }
