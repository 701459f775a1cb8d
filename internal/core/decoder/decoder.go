// Package decoder locates Ethernet/IPv4/TCP/UDP header boundaries in raw
// frames. Every decoder checks the frame length before reading a field and
// reports core.ErrPacketTooShort rather than reading past the end; callers
// skip such frames.
package decoder

import "firestige.xyz/microburst/internal/core"

// Depth selects how far Extract walks into the frame.
type Depth int

const (
	// LayerNetwork stops after the IPv4 header.
	LayerNetwork Depth = iota
	// LayerTransport also decodes the TCP/UDP header.
	LayerTransport
)

// Fields holds decoded headers and their byte offsets within the frame.
type Fields struct {
	Ethernet        core.EthernetHeader
	IP              core.IPv4Header
	Transport       core.TransportHeader
	IPOffset        int
	TransportOffset int
	PayloadOffset   int // only set for LayerTransport
}

// Extract decodes the frame down to depth.
func Extract(frame []byte, depth Depth) (Fields, error) {
	var f Fields

	eth, rest, err := DecodeEthernet(frame)
	if err != nil {
		return f, err
	}
	f.Ethernet = eth
	// EtherType is not checked: the frame is assumed to carry IPv4.
	f.IPOffset = ethernetHeaderLen

	ip, rest, err := DecodeIPv4(rest)
	if err != nil {
		return f, err
	}
	f.IP = ip
	f.TransportOffset = f.IPOffset + ip.HeaderLen
	if depth == LayerNetwork {
		return f, nil
	}

	th, _, err := DecodeTransport(rest, ip.Protocol)
	if err != nil {
		return f, err
	}
	f.Transport = th
	f.PayloadOffset = f.TransportOffset + th.HeaderLen
	return f, nil
}
