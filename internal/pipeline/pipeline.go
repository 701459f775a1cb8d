// Package pipeline drives frames from a capture through a detector to a sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"firestige.xyz/microburst/internal/capture"
	"firestige.xyz/microburst/internal/core"
	"firestige.xyz/microburst/internal/detector"
	"firestige.xyz/microburst/internal/log"
	"firestige.xyz/microburst/internal/report"
)

// ctxCheckMask sets how often the loop polls for cancellation.
const ctxCheckMask = 1<<10 - 1

// Source yields capture frames until io.EOF.
type Source interface {
	Next() (capture.Frame, error)
	Timestamp(f capture.Frame) int64
}

// Filter decides whether a frame reaches the detector. A frame it cannot
// inspect is reported with an error and counted as skipped.
type Filter interface {
	Match(frame []byte) (bool, error)
}

// overflowCounter is implemented by detectors with a bounded buffer that
// drops old packets when full.
type overflowCounter interface {
	Overflows() uint64
}

// Sink receives completed events.
type Sink interface {
	Send(ev core.Event) error
}

// Pipeline represents a single-threaded packet processing chain.
type Pipeline struct {
	source     Source
	filter     Filter
	detector   detector.Detector
	overflows  overflowCounter
	sink       Sink
	summary    *report.Summary
	flushOnEOF bool
	metrics    *Metrics
	status     *statusReporter
	logger     log.Logger

	seq uint64
}

// Config contains pipeline configuration.
type Config struct {
	RunID          string
	Source         Source
	Filter         Filter // optional
	Detector       detector.Detector
	Sink           Sink
	Summary        *report.Summary // optional
	FlushOnEOF     bool
	StatusInterval time.Duration // zero disables status lines
}

// New creates a new pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil || cfg.Detector == nil || cfg.Sink == nil {
		return nil, fmt.Errorf("%w: pipeline needs a source, a detector and a sink", core.ErrConfigInvalid)
	}

	logger := log.GetLogger().WithFields(map[string]interface{}{
		"run":      cfg.RunID,
		"detector": cfg.Detector.Name(),
	})
	metrics := NewMetrics(cfg.RunID)

	p := &Pipeline{
		source:     cfg.Source,
		filter:     cfg.Filter,
		detector:   cfg.Detector,
		sink:       cfg.Sink,
		summary:    cfg.Summary,
		flushOnEOF: cfg.FlushOnEOF,
		metrics:    metrics,
		logger:     logger,
	}
	if oc, ok := cfg.Detector.(overflowCounter); ok {
		p.overflows = oc
	}
	if cfg.StatusInterval > 0 {
		p.status = newStatusReporter(cfg.StatusInterval, metrics, logger, time.Now)
	}
	return p, nil
}

// Run processes frames until the source is exhausted or ctx is cancelled.
// A cancelled run still flushes and returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Debug("pipeline starting")
	start := time.Now()

	for {
		if p.seq&ctxCheckMask == 0 && ctx.Err() != nil {
			p.logger.Info("pipeline interrupted")
			break
		}

		frame, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read capture: %w", err)
		}

		if err := p.processFrame(frame); err != nil {
			return err
		}
		if p.status != nil {
			p.status.Tick()
		}
	}

	if err := p.finish(); err != nil {
		return err
	}
	p.logger.WithFields(p.metrics.Snapshot().Fields()).
		WithField("elapsed", time.Since(start).Round(time.Millisecond)).
		Debug("pipeline stopped")
	return nil
}

// processFrame handles a single frame from filter to sink.
func (p *Pipeline) processFrame(frame capture.Frame) error {
	p.metrics.Received.Add(1)
	p.metrics.Bytes.Add(uint64(frame.CapLen))

	// Step 1: Optional content filter
	if p.filter != nil {
		ok, err := p.filter.Match(frame.Data)
		if err != nil {
			p.metrics.Skipped.Add(1)
			if p.logger.IsTraceEnabled() {
				p.logger.WithError(err).Tracef("frame %d skipped", p.seq)
			}
			p.seq++
			return nil
		}
		if !ok {
			p.metrics.Filtered.Add(1)
			p.seq++
			return nil
		}
	}

	// Step 2: Project to a packet and observe
	pkt := core.Packet{
		TS:      p.source.Timestamp(frame),
		CapLen:  frame.CapLen,
		OrigLen: frame.OrigLen,
		Seq:     p.seq,
	}
	p.seq++
	p.metrics.Observed.Add(1)

	ev, ok := p.detector.Observe(pkt)
	if p.overflows != nil {
		p.metrics.Overflows.Store(p.overflows.Overflows())
	}
	if !ok {
		return nil
	}
	return p.emit(ev)
}

func (p *Pipeline) finish() error {
	if !p.flushOnEOF {
		return nil
	}
	if ev, ok := p.detector.Flush(); ok {
		return p.emit(ev)
	}
	return nil
}

func (p *Pipeline) emit(ev core.Event) error {
	p.metrics.Events.Add(1)
	if p.summary != nil {
		p.summary.Add(ev)
	}
	if err := p.sink.Send(ev); err != nil {
		return fmt.Errorf("send %s event: %w", ev.Kind(), err)
	}
	return nil
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	return p.metrics.Snapshot()
}
