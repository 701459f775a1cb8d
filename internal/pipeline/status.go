package pipeline

import (
	"time"

	"firestige.xyz/microburst/internal/log"
)

// statusCheckEvery is how many frames pass between wall clock reads.
const statusCheckEvery = 4096

// statusReporter logs progress at a fixed wall-clock interval. It runs on
// the pipeline goroutine and only reads the clock every few thousand frames.
type statusReporter struct {
	interval time.Duration
	metrics  *Metrics
	logger   log.Logger
	now      func() time.Time

	frames uint64
	next   time.Time
	last   Stats
	lastAt time.Time
}

func newStatusReporter(interval time.Duration, metrics *Metrics, logger log.Logger, now func() time.Time) *statusReporter {
	t := now()
	return &statusReporter{
		interval: interval,
		metrics:  metrics,
		logger:   logger,
		now:      now,
		next:     t.Add(interval),
		lastAt:   t,
	}
}

// Tick is called once per frame.
func (s *statusReporter) Tick() {
	s.frames++
	if s.frames%statusCheckEvery != 0 {
		return
	}
	t := s.now()
	if t.Before(s.next) {
		return
	}
	s.report(t)
	s.next = t.Add(s.interval)
}

func (s *statusReporter) report(t time.Time) {
	cur := s.metrics.Snapshot()
	secs := t.Sub(s.lastAt).Seconds()
	var pps, mbps float64
	if secs > 0 {
		pps = float64(cur.Received-s.last.Received) / secs
		mbps = float64(cur.Bytes-s.last.Bytes) * 8 / secs / 1e6
	}
	s.logger.WithFields(cur.Fields()).
		WithField("pps", int64(pps)).
		WithField("mbps", int64(mbps)).
		Info("status")
	s.last = cur
	s.lastAt = t
}
