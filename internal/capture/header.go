package capture

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/microburst/internal/core"
)

const (
	// MagicMicros marks a capture whose sub-second field counts microseconds.
	MagicMicros uint32 = 0xa1b2c3d4
	// MagicNanos marks a capture whose sub-second field counts nanoseconds.
	MagicNanos uint32 = 0xa1b23c4d

	globalHeaderLen = 24
	recordHeaderLen = 16
)

// GlobalHeader is the fixed preamble of a capture file.
type GlobalHeader struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32
	SigFigs      uint32
	Snaplen      uint32
	Network      uint32
}

// recordHeader precedes every captured frame.
type recordHeader struct {
	Sec     uint32
	Subsec  uint32
	CapLen  uint32
	OrigLen uint32
}

// decodeGlobalHeader parses the little-endian global header.
func decodeGlobalHeader(data []byte) (GlobalHeader, error) {
	if len(data) < globalHeaderLen {
		return GlobalHeader{}, core.ErrPacketTooShort
	}
	return GlobalHeader{
		Magic:        binary.LittleEndian.Uint32(data[0:4]),
		VersionMajor: binary.LittleEndian.Uint16(data[4:6]),
		VersionMinor: binary.LittleEndian.Uint16(data[6:8]),
		ThisZone:     int32(binary.LittleEndian.Uint32(data[8:12])),
		SigFigs:      binary.LittleEndian.Uint32(data[12:16]),
		Snaplen:      binary.LittleEndian.Uint32(data[16:20]),
		Network:      binary.LittleEndian.Uint32(data[20:24]),
	}, nil
}

func decodeRecordHeader(data []byte) recordHeader {
	return recordHeader{
		Sec:     binary.LittleEndian.Uint32(data[0:4]),
		Subsec:  binary.LittleEndian.Uint32(data[4:8]),
		CapLen:  binary.LittleEndian.Uint32(data[8:12]),
		OrigLen: binary.LittleEndian.Uint32(data[12:16]),
	}
}

// scaleFor returns the nanoseconds per sub-second unit for magic.
func scaleFor(magic uint32) (int64, error) {
	switch magic {
	case MagicMicros:
		return 1000, nil
	case MagicNanos:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: magic 0x%08x", core.ErrFormat, magic)
	}
}
