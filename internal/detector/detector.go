// Package detector finds traffic bursts in a time-ordered packet stream.
package detector

import "firestige.xyz/microburst/internal/core"

// Detector consumes packets one at a time and reports completed events.
type Detector interface {
	Name() string
	// Observe feeds one packet. It returns an event when the packet closes
	// one.
	Observe(p core.Packet) (core.Event, bool)
	// Flush closes any in-progress event at end of input.
	Flush() (core.Event, bool)
}
