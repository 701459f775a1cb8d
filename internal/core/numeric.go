package core

import "time"

const (
	// NanosPerSecond converts capture seconds to nanoseconds.
	NanosPerSecond = int64(1_000_000_000)
)

// SafeInverse returns 1/x, or 0 when x is 0.
func SafeInverse(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1 / x
}

// LocalUTCOffset returns the host timezone offset at t in nanoseconds.
func LocalUTCOffset(t time.Time) int64 {
	_, offset := t.Local().Zone()
	return int64(offset) * NanosPerSecond
}
