// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"firestige.xyz/microburst/internal/core"
)

const (
	ipv4HeaderMinLen = 20

	// ipv4SrcOffset is the offset of the source address inside the IPv4 header.
	ipv4SrcOffset = 12
)

// DecodeIPv4 decodes the IPv4 header at the start of data.
// The header length comes from the IHL nibble (32-bit words * 4).
// Returns IPv4Header and remaining payload.
func DecodeIPv4(data []byte) (core.IPv4Header, []byte, error) {
	if len(data) < ipv4HeaderMinLen {
		return core.IPv4Header{}, nil, core.ErrPacketTooShort
	}

	// IHL (Internet Header Length) - lower 4 bits of first byte
	ihl := int(data[0] & 0x0F)
	headerLen := ihl * 4

	if headerLen < ipv4HeaderMinLen {
		return core.IPv4Header{}, nil, fmt.Errorf("ihl %d: %w", ihl, core.ErrMalformedHeader)
	}
	if len(data) < headerLen {
		return core.IPv4Header{}, nil, core.ErrPacketTooShort
	}

	ip := core.IPv4Header{
		Version:   data[0] >> 4,
		HeaderLen: headerLen,
		TotalLen:  binary.BigEndian.Uint16(data[2:4]),
		TTL:       data[8],
		Protocol:  data[9],
		SrcIP:     netip.AddrFrom4([4]byte(data[12:16])),
		DstIP:     netip.AddrFrom4([4]byte(data[16:20])),
	}

	return ip, data[headerLen:], nil
}
