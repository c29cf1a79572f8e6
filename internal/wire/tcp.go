package wire

import "encoding/binary"

const tcpHeaderSize = 20

// TCPView is a read-only view over the first 20 bytes of a TCP segment:
// enough to read source/destination ports from an ICMPv6 error's inner
// payload. TCP probing is reserved (spec.md Non-goals); this view exists so
// the reserved extractor has a real codec to read from once implemented,
// but the engine never builds or sends a TCPView.
type TCPView struct {
	buf []byte
}

// NewTCPView wraps buf as a (partial) TCP header view.
func NewTCPView(buf []byte) (TCPView, error) {
	if len(buf) < tcpHeaderSize {
		return TCPView{}, ErrPacketTooShort
	}
	return TCPView{buf: buf}, nil
}

// MinimumPacketSize returns the fixed TCP header size this view expects.
func (TCPView) MinimumPacketSize() int { return tcpHeaderSize }

// Source returns the source port.
func (v TCPView) Source() uint16 { return binary.BigEndian.Uint16(v.buf[0:2]) }

// Destination returns the destination port.
func (v TCPView) Destination() uint16 { return binary.BigEndian.Uint16(v.buf[2:4]) }

// Payload returns the full underlying slice.
func (v TCPView) Payload() []byte { return v.buf }

// Packet returns the full underlying slice.
func (v TCPView) Packet() []byte { return v.buf }
