package wire

import (
	"encoding/binary"
	"net/netip"
)

const ipv6HeaderSize = 40

// IPv6View is a read-only, bounds-checked view over an IPv6 header and
// whatever follows it. The engine never builds one for sending (the kernel
// prepends the IPv6 header for raw sockets on this platform), but
// TimeExceeded/DestinationUnreachable payloads carry the offending packet's
// IPv6 header back to us, so the extractor needs to be able to read one.
type IPv6View struct {
	buf []byte
}

// NewIPv6View wraps buf as an IPv6 header view. It fails if buf is shorter
// than the fixed 40-byte IPv6 header.
func NewIPv6View(buf []byte) (IPv6View, error) {
	if len(buf) < ipv6HeaderSize {
		return IPv6View{}, ErrPacketTooShort
	}
	return IPv6View{buf: buf}, nil
}

// MinimumPacketSize returns the fixed size of an IPv6 header.
func (IPv6View) MinimumPacketSize() int { return ipv6HeaderSize }

// PayloadLength returns the value of the IPv6 Payload Length field.
func (v IPv6View) PayloadLength() uint16 {
	return binary.BigEndian.Uint16(v.buf[4:6])
}

// NextHeader returns the IPv6 Next Header field.
func (v IPv6View) NextHeader() NextHeader {
	return NextHeader(v.buf[6])
}

// HopLimit returns the IPv6 Hop Limit field.
func (v IPv6View) HopLimit() uint8 {
	return v.buf[7]
}

// Source returns the IPv6 source address.
func (v IPv6View) Source() netip.Addr {
	var b [16]byte
	copy(b[:], v.buf[8:24])
	return netip.AddrFrom16(b)
}

// Destination returns the IPv6 destination address.
func (v IPv6View) Destination() netip.Addr {
	var b [16]byte
	copy(b[:], v.buf[24:40])
	return netip.AddrFrom16(b)
}

// Payload returns the bytes following the fixed IPv6 header. Extension
// headers are not walked: the engine only ever needs this to reach the
// first 8+ bytes of the offending transport header carried inside an
// ICMPv6 error, which RFC 4443 guarantees sits immediately after a
// single, unextended IPv6 header in that context.
func (v IPv6View) Payload() []byte {
	return v.buf[ipv6HeaderSize:]
}

// Packet returns the full underlying slice.
func (v IPv6View) Packet() []byte {
	return v.buf
}
