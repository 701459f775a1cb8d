// Package console writes detected events as text lines.
package console

import (
	"bufio"
	"fmt"
	"io"

	"firestige.xyz/microburst/internal/core"
)

const Name = "console"

// Sink prints one line per event.
type Sink struct {
	w *bufio.Writer
}

// NewWriterSink writes events to w, usually the command's stdout.
func NewWriterSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w)}
}

func (s *Sink) Name() string { return Name }

// Send writes ev and flushes so lines appear as bursts are detected.
func (s *Sink) Send(ev core.Event) error {
	if _, err := fmt.Fprintln(s.w, ev.String()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return s.w.Flush()
}

func (s *Sink) Close() error {
	return s.w.Flush()
}
