package decoder

import (
	"errors"
	"testing"

	"firestige.xyz/microburst/internal/core"
)

func TestDecodeEthernetBasic(t *testing.T) {
	// Simple Ethernet frame: Dst MAC, Src MAC, EtherType
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x08, 0x00, // EtherType: IPv4
		0x45, 0x00, // Payload (start of IP header)
	}

	eth, payload, err := DecodeEthernet(data)
	if err != nil {
		t.Fatalf("DecodeEthernet failed: %v", err)
	}

	expectedDstMAC := [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	if eth.DstMAC != expectedDstMAC {
		t.Errorf("Expected DstMAC %v, got %v", expectedDstMAC, eth.DstMAC)
	}

	expectedSrcMAC := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	if eth.SrcMAC != expectedSrcMAC {
		t.Errorf("Expected SrcMAC %v, got %v", expectedSrcMAC, eth.SrcMAC)
	}

	if eth.EtherType != etherTypeIPv4 {
		t.Errorf("Expected EtherType 0x0800, got 0x%04x", eth.EtherType)
	}

	if len(payload) != 2 {
		t.Errorf("Expected payload length 2, got %d", len(payload))
	}
}

func TestDecodeEthernetTooShort(t *testing.T) {
	for n := 0; n < ethernetHeaderLen; n++ {
		_, _, err := DecodeEthernet(make([]byte, n))
		if !errors.Is(err, core.ErrPacketTooShort) {
			t.Errorf("len %d: expected ErrPacketTooShort, got %v", n, err)
		}
	}
}
