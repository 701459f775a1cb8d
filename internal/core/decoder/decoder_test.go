package decoder

import (
	"errors"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/microburst/internal/core"
)

// serializeFrame builds a real Ethernet/IPv4/transport frame with gopacket.
func serializeFrame(t *testing.T, src net.IP, transport gopacket.SerializableLayer, ipOptions []layers.IPv4Option) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		DstMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version: 4,
		TTL:     64,
		SrcIP:   src,
		DstIP:   net.IPv4(10, 9, 8, 7),
		Options: ipOptions,
	}
	switch l := transport.(type) {
	case *layers.TCP:
		ip.Protocol = layers.IPProtocolTCP
		require.NoError(t, l.SetNetworkLayerForChecksum(ip))
	case *layers.UDP:
		ip.Protocol = layers.IPProtocolUDP
		require.NoError(t, l.SetNetworkLayerForChecksum(ip))
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, transport, gopacket.Payload([]byte("hello"))))
	return buf.Bytes()
}

func TestExtractTCP(t *testing.T) {
	tcp := &layers.TCP{
		SrcPort: 40000,
		DstPort: 443,
		Seq:     7,
		ACK:     true,
		Options: []layers.TCPOption{
			{OptionType: layers.TCPOptionKindMSS, OptionLength: 4, OptionData: []byte{0x05, 0xb4}},
		},
	}
	frame := serializeFrame(t, net.IPv4(10, 2, 0, 1), tcp, nil)

	f, err := Extract(frame, LayerTransport)
	require.NoError(t, err)

	assert.Equal(t, 14, f.IPOffset)
	assert.Equal(t, 20, f.IP.HeaderLen)
	assert.Equal(t, 34, f.TransportOffset)
	assert.Equal(t, uint8(protocolTCP), f.Transport.Protocol)
	assert.Equal(t, 24, f.Transport.HeaderLen, "MSS option pads the header to 24 bytes")
	assert.Equal(t, uint16(40000), f.Transport.SrcPort)
	assert.Equal(t, uint16(443), f.Transport.DstPort)
	assert.Equal(t, "hello", string(frame[f.PayloadOffset:]))
}

func TestExtractUDPWithIPOptions(t *testing.T) {
	udp := &layers.UDP{SrcPort: 5000, DstPort: 5001}
	opts := []layers.IPv4Option{
		{OptionType: 0x94, OptionLength: 4, OptionData: []byte{0, 0}}, // router alert
	}
	frame := serializeFrame(t, net.IPv4(192, 168, 1, 1), udp, opts)

	f, err := Extract(frame, LayerTransport)
	require.NoError(t, err)

	assert.Equal(t, 24, f.IP.HeaderLen)
	assert.Equal(t, 38, f.TransportOffset)
	assert.Equal(t, 46, f.PayloadOffset)
	assert.Equal(t, "hello", string(frame[f.PayloadOffset:]))
}

func TestExtractNetworkOnly(t *testing.T) {
	frame := serializeFrame(t, net.IPv4(172, 16, 5, 4), &layers.UDP{SrcPort: 1, DstPort: 2}, nil)

	// Truncate inside the UDP header: network depth must still succeed.
	f, err := Extract(frame[:36], LayerNetwork)
	require.NoError(t, err)
	assert.Equal(t, "172.16.5.4", f.IP.SrcIP.String())
	assert.Zero(t, f.PayloadOffset)

	_, err = Extract(frame[:36], LayerTransport)
	assert.ErrorIs(t, err, core.ErrPacketTooShort)
}

func TestExtractShortFrames(t *testing.T) {
	frame := serializeFrame(t, net.IPv4(1, 2, 3, 4), &layers.UDP{SrcPort: 1, DstPort: 2}, nil)

	for n := 0; n < 34; n++ {
		_, err := Extract(frame[:n], LayerNetwork)
		if !errors.Is(err, core.ErrPacketTooShort) {
			t.Fatalf("len %d: expected ErrPacketTooShort, got %v", n, err)
		}
	}
}

func TestSourceOctetFilter(t *testing.T) {
	f, err := NewSourceOctetFilter(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "src[1]==2", f.String())

	match := serializeFrame(t, net.IPv4(10, 2, 0, 1), &layers.UDP{SrcPort: 1, DstPort: 2}, nil)
	miss := serializeFrame(t, net.IPv4(10, 3, 0, 1), &layers.UDP{SrcPort: 1, DstPort: 2}, nil)

	ok, err := f.Match(match)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match(miss)
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("too short is skipped, not read", func(t *testing.T) {
		ok, err := f.Match(match[:29])
		assert.False(t, ok)
		assert.ErrorIs(t, err, core.ErrPacketTooShort)
	})

	t.Run("non-IPv4 ethertype is skipped", func(t *testing.T) {
		tagged := append([]byte(nil), match...)
		tagged[12], tagged[13] = 0x81, 0x00 // 802.1Q
		ok, err := f.Match(tagged)
		assert.False(t, ok)
		assert.ErrorIs(t, err, core.ErrUnsupportedProto)

		arp := append([]byte(nil), match...)
		arp[12], arp[13] = 0x08, 0x06
		_, err = f.Match(arp)
		assert.ErrorIs(t, err, core.ErrUnsupportedProto)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := NewSourceOctetFilter(4, 0)
		assert.ErrorIs(t, err, core.ErrConfigInvalid)
	})
}
