package decoder

import (
	"fmt"

	"firestige.xyz/microburst/internal/core"
)

// minSrcAddrLen is the shortest frame that carries a full IPv4 source address.
const minSrcAddrLen = ethernetHeaderLen + ipv4SrcOffset + 4

// SourceOctetFilter keeps frames whose IPv4 source address byte Index equals Value.
type SourceOctetFilter struct {
	Index int
	Value byte
}

// NewSourceOctetFilter validates index and returns the filter.
func NewSourceOctetFilter(index int, value byte) (*SourceOctetFilter, error) {
	if index < 0 || index > 3 {
		return nil, fmt.Errorf("source octet index %d out of range 0-3: %w", index, core.ErrConfigInvalid)
	}
	return &SourceOctetFilter{Index: index, Value: value}, nil
}

// Match reports whether frame passes the filter. Frames that cannot be
// inspected return an error and must be skipped: core.ErrPacketTooShort when
// the source address is cut off, core.ErrUnsupportedProto when the frame is
// not untagged IPv4 (VLAN tags, ARP, IPv6).
func (f *SourceOctetFilter) Match(frame []byte) (bool, error) {
	if len(frame) < minSrcAddrLen {
		return false, core.ErrPacketTooShort
	}
	eth, _, err := DecodeEthernet(frame)
	if err != nil {
		return false, err
	}
	if eth.EtherType != etherTypeIPv4 {
		return false, fmt.Errorf("%w: ethertype 0x%04x", core.ErrUnsupportedProto, eth.EtherType)
	}
	fields, err := Extract(frame, LayerNetwork)
	if err != nil {
		return false, err
	}
	return fields.IP.SrcIP.As4()[f.Index] == f.Value, nil
}

func (f *SourceOctetFilter) String() string {
	return fmt.Sprintf("src[%d]==%d", f.Index, f.Value)
}
