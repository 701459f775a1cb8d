// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// EthernetHeader represents the L2 Ethernet frame header at offset 0.
type EthernetHeader struct {
	SrcMAC    [6]byte
	DstMAC    [6]byte
	EtherType uint16 // 0x0800=IPv4
}

// IPv4Header represents the L3 IPv4 header following the Ethernet header.
type IPv4Header struct {
	Version   uint8
	HeaderLen int // IHL * 4
	TotalLen  uint16
	TTL       uint8
	Protocol  uint8 // TCP=6, UDP=17
	SrcIP     netip.Addr
	DstIP     netip.Addr
}

// TransportHeader represents the L4 transport layer header (TCP/UDP).
type TransportHeader struct {
	Protocol  uint8
	SrcPort   uint16
	DstPort   uint16
	HeaderLen int // TCP data offset * 4, or 8 for UDP
	// TCP-specific fields (only populated for TCP)
	TCPFlags uint8
	SeqNum   uint32
	AckNum   uint32
}
