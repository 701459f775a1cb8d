// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/microburst/internal/core"
)

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20

	// Protocol numbers
	protocolTCP = 6
	protocolUDP = 17
)

// DecodeTransport decodes transport layer header (TCP/UDP).
// Returns TransportHeader and remaining payload.
func DecodeTransport(data []byte, protocol uint8) (core.TransportHeader, []byte, error) {
	switch protocol {
	case protocolTCP:
		return decodeTCP(data)
	case protocolUDP:
		return decodeUDP(data)
	default:
		return core.TransportHeader{Protocol: protocol}, data, core.ErrUnsupportedProto
	}
}

// decodeUDP decodes UDP header.
func decodeUDP(data []byte) (core.TransportHeader, []byte, error) {
	if len(data) < udpHeaderLen {
		return core.TransportHeader{}, nil, core.ErrPacketTooShort
	}

	transport := core.TransportHeader{
		Protocol:  protocolUDP,
		SrcPort:   binary.BigEndian.Uint16(data[0:2]),
		DstPort:   binary.BigEndian.Uint16(data[2:4]),
		HeaderLen: udpHeaderLen,
	}

	return transport, data[udpHeaderLen:], nil
}

// decodeTCP decodes TCP header, locating the payload through the data offset nibble.
func decodeTCP(data []byte) (core.TransportHeader, []byte, error) {
	if len(data) < tcpHeaderMinLen {
		return core.TransportHeader{}, nil, core.ErrPacketTooShort
	}

	transport := core.TransportHeader{
		Protocol: protocolTCP,
		SrcPort:  binary.BigEndian.Uint16(data[0:2]),
		DstPort:  binary.BigEndian.Uint16(data[2:4]),
		SeqNum:   binary.BigEndian.Uint32(data[4:8]),
		AckNum:   binary.BigEndian.Uint32(data[8:12]),
	}

	// Data Offset (upper 4 bits of byte 12), in 32-bit words
	dataOffset := int(data[12] >> 4)
	headerLen := dataOffset * 4

	if headerLen < tcpHeaderMinLen {
		return transport, nil, fmt.Errorf("data offset %d: %w", dataOffset, core.ErrMalformedHeader)
	}
	if len(data) < headerLen {
		return transport, nil, core.ErrPacketTooShort
	}
	transport.HeaderLen = headerLen

	// TCP Flags (lower 6 bits of byte 13)
	transport.TCPFlags = data[13] & 0x3F

	return transport, data[headerLen:], nil
}
