// Package pipeline implements pipeline construction.
package pipeline

import (
	"time"

	"firestige.xyz/microburst/internal/detector"
	"firestige.xyz/microburst/internal/report"
)

// Builder provides a fluent interface for building pipelines.
// This is an alternative to using Config directly.
type Builder struct {
	config Config
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithRunID sets the run identifier attached to log entries.
func (b *Builder) WithRunID(id string) *Builder {
	b.config.RunID = id
	return b
}

// WithSource sets the frame source.
func (b *Builder) WithSource(s Source) *Builder {
	b.config.Source = s
	return b
}

// WithFilter sets the content filter.
func (b *Builder) WithFilter(f Filter) *Builder {
	b.config.Filter = f
	return b
}

// WithDetector sets the burst detector.
func (b *Builder) WithDetector(d detector.Detector) *Builder {
	b.config.Detector = d
	return b
}

// WithSink sets the event sink.
func (b *Builder) WithSink(s Sink) *Builder {
	b.config.Sink = s
	return b
}

// WithSummary collects every event into s.
func (b *Builder) WithSummary(s *report.Summary) *Builder {
	b.config.Summary = s
	return b
}

// WithFlushOnEOF reports the in-progress event when input ends.
func (b *Builder) WithFlushOnEOF(flush bool) *Builder {
	b.config.FlushOnEOF = flush
	return b
}

// WithStatusInterval enables periodic status lines.
func (b *Builder) WithStatusInterval(d time.Duration) *Builder {
	b.config.StatusInterval = d
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	return New(b.config)
}
