package wire

import "encoding/binary"

const udpHeaderSize = 8

// UDPView is a view over a UDP segment: source(2) dest(2) length(2)
// checksum(2), followed by the payload.
type UDPView struct {
	buf []byte
}

// NewUDPView wraps buf as a UDP segment.
func NewUDPView(buf []byte) (UDPView, error) {
	if len(buf) < udpHeaderSize {
		return UDPView{}, ErrPacketTooShort
	}
	return UDPView{buf: buf}, nil
}

// MinimumPacketSize returns the fixed UDP header size.
func (UDPView) MinimumPacketSize() int { return udpHeaderSize }

// SetSource writes the source port.
func (v UDPView) SetSource(port uint16) { binary.BigEndian.PutUint16(v.buf[0:2], port) }

// SetDestination writes the destination port.
func (v UDPView) SetDestination(port uint16) { binary.BigEndian.PutUint16(v.buf[2:4], port) }

// SetLength writes the UDP length field (header + payload).
func (v UDPView) SetLength(length uint16) { binary.BigEndian.PutUint16(v.buf[4:6], length) }

// SetChecksum writes the checksum field.
func (v UDPView) SetChecksum(sum uint16) { binary.BigEndian.PutUint16(v.buf[6:8], sum) }

// SetPayload copies p into the payload region.
func (v UDPView) SetPayload(p []byte) { copy(v.buf[udpHeaderSize:], p) }

// Source returns the source port.
func (v UDPView) Source() uint16 { return binary.BigEndian.Uint16(v.buf[0:2]) }

// Destination returns the destination port.
func (v UDPView) Destination() uint16 { return binary.BigEndian.Uint16(v.buf[2:4]) }

// Length returns the UDP length field.
func (v UDPView) Length() uint16 { return binary.BigEndian.Uint16(v.buf[4:6]) }

// Payload returns the payload region.
func (v UDPView) Payload() []byte { return v.buf[udpHeaderSize:] }

// Packet returns the full underlying slice (what gets checksummed and sent).
func (v UDPView) Packet() []byte { return v.buf }
