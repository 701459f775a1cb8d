// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors, wrapped with fmt.Errorf("...: %w") at the failure site.
var (
	// Capture source errors
	ErrIO              = errors.New("microburst: capture source i/o failure")
	ErrFormat          = errors.New("microburst: unrecognized capture format")
	ErrTruncatedRecord = errors.New("microburst: truncated capture record")

	// Frame decoding errors
	ErrPacketTooShort   = errors.New("microburst: packet too short")
	ErrMalformedHeader  = errors.New("microburst: malformed header")
	ErrUnsupportedProto = errors.New("microburst: unsupported protocol")

	// Configuration errors
	ErrConfigInvalid   = errors.New("microburst: invalid configuration")
	ErrUnknownDetector = errors.New("microburst: unknown detector")
)
