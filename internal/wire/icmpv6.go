package wire

import "encoding/binary"

const icmpv6HeaderSize = 8 // type(1) code(1) checksum(2) + 4 bytes of message-specific header

// ICMPv6Type classifies a received ICMPv6 message for C5's dispatch table.
type ICMPv6Type int

// ICMPv6 message types the engine cares about. Anything else classifies as
// Other and is dropped by the extractor.
const (
	ICMPv6TypeOther ICMPv6Type = iota
	ICMPv6TypeEchoRequest
	ICMPv6TypeEchoReply
	ICMPv6TypeTimeExceeded
	ICMPv6TypeDestinationUnreachable
)

// Wire values of the ICMPv6 type byte, per RFC 4443.
const (
	icmpv6WireDestinationUnreachable = 1
	icmpv6WireTimeExceeded           = 3
	icmpv6WireEchoRequest            = 128
	icmpv6WireEchoReply              = 129
)

// ICMPView is a generic, read-only view over an ICMPv6 message used only to
// classify it before re-viewing the same buffer as one of the specific
// message types below.
type ICMPView struct {
	buf []byte
}

// NewICMPView wraps buf as a generic ICMPv6 view.
func NewICMPView(buf []byte) (ICMPView, error) {
	if len(buf) < icmpv6HeaderSize {
		return ICMPView{}, ErrPacketTooShort
	}
	return ICMPView{buf: buf}, nil
}

// MinimumPacketSize returns the generic ICMPv6 header size.
func (ICMPView) MinimumPacketSize() int { return icmpv6HeaderSize }

// Type returns the raw wire type byte.
func (v ICMPView) Type() uint8 { return v.buf[0] }

// Code returns the raw wire code byte.
func (v ICMPView) Code() uint8 { return v.buf[1] }

// ICMPType classifies the message per spec: EchoRequest, EchoReply,
// TimeExceeded, DestinationUnreachable, or Other.
func (v ICMPView) ICMPType() ICMPv6Type {
	switch v.buf[0] {
	case icmpv6WireEchoRequest:
		return ICMPv6TypeEchoRequest
	case icmpv6WireEchoReply:
		return ICMPv6TypeEchoReply
	case icmpv6WireTimeExceeded:
		return ICMPv6TypeTimeExceeded
	case icmpv6WireDestinationUnreachable:
		return ICMPv6TypeDestinationUnreachable
	default:
		return ICMPv6TypeOther
	}
}

// Payload returns the bytes following the generic 8-byte ICMPv6 header.
func (v ICMPView) Payload() []byte { return v.buf[icmpv6HeaderSize:] }

// Packet returns the full underlying slice.
func (v ICMPView) Packet() []byte { return v.buf }

// EchoRequestView is a mutable view over an ICMPv6 Echo Request, used by C4
// to build outgoing probes.
type EchoRequestView struct {
	buf []byte
}

// NewEchoRequestView wraps buf as an Echo Request. buf's length fixes the
// packet length (header + payload); it must be at least the header size.
func NewEchoRequestView(buf []byte) (EchoRequestView, error) {
	if len(buf) < icmpv6HeaderSize {
		return EchoRequestView{}, ErrPacketTooShort
	}
	return EchoRequestView{buf: buf}, nil
}

// MinimumPacketSize returns the Echo Request header size.
func (EchoRequestView) MinimumPacketSize() int { return icmpv6HeaderSize }

// SetType sets the ICMPv6 type byte to Echo Request (128).
func (v EchoRequestView) SetType() { v.buf[0] = icmpv6WireEchoRequest }

// SetCode sets the ICMPv6 code byte.
func (v EchoRequestView) SetCode(code uint8) { v.buf[1] = code }

// SetChecksum writes the checksum field.
func (v EchoRequestView) SetChecksum(sum uint16) { binary.BigEndian.PutUint16(v.buf[2:4], sum) }

// SetIdentifier writes the Echo identifier field.
func (v EchoRequestView) SetIdentifier(id uint16) { binary.BigEndian.PutUint16(v.buf[4:6], id) }

// SetSequence writes the Echo sequence field.
func (v EchoRequestView) SetSequence(seq uint16) { binary.BigEndian.PutUint16(v.buf[6:8], seq) }

// SetPayload copies p into the payload region. len(p) must not exceed
// len(buf)-MinimumPacketSize().
func (v EchoRequestView) SetPayload(p []byte) { copy(v.buf[icmpv6HeaderSize:], p) }

// Payload returns the payload region.
func (v EchoRequestView) Payload() []byte { return v.buf[icmpv6HeaderSize:] }

// Packet returns the full underlying slice (what gets checksummed and sent).
func (v EchoRequestView) Packet() []byte { return v.buf }

// EchoReplyView is a read-only view over a received ICMPv6 Echo Reply.
type EchoReplyView struct {
	buf []byte
}

// NewEchoReplyView wraps buf as an Echo Reply.
func NewEchoReplyView(buf []byte) (EchoReplyView, error) {
	if len(buf) < icmpv6HeaderSize {
		return EchoReplyView{}, ErrPacketTooShort
	}
	return EchoReplyView{buf: buf}, nil
}

// MinimumPacketSize returns the Echo Reply header size.
func (EchoReplyView) MinimumPacketSize() int { return icmpv6HeaderSize }

// Identifier returns the Echo identifier field.
func (v EchoReplyView) Identifier() uint16 { return binary.BigEndian.Uint16(v.buf[4:6]) }

// Sequence returns the Echo sequence field.
func (v EchoReplyView) Sequence() uint16 { return binary.BigEndian.Uint16(v.buf[6:8]) }

// Payload returns the payload region.
func (v EchoReplyView) Payload() []byte { return v.buf[icmpv6HeaderSize:] }

// Packet returns the full underlying slice.
func (v EchoReplyView) Packet() []byte { return v.buf }

// errorMessageHeaderSize is shared by TimeExceeded and DestinationUnreachable:
// type(1) code(1) checksum(2) unused/pointer(4), followed by as much of the
// offending packet as fit (RFC 4443 §3.1/§3.3).
const errorMessageHeaderSize = 8

// TimeExceededView is a read-only view over an ICMPv6 Time Exceeded message.
type TimeExceededView struct {
	buf []byte
}

// NewTimeExceededView wraps buf as a Time Exceeded message.
func NewTimeExceededView(buf []byte) (TimeExceededView, error) {
	if len(buf) < errorMessageHeaderSize {
		return TimeExceededView{}, ErrPacketTooShort
	}
	return TimeExceededView{buf: buf}, nil
}

// MinimumPacketSize returns the Time Exceeded header size.
func (TimeExceededView) MinimumPacketSize() int { return errorMessageHeaderSize }

// Payload returns the offending packet this error carries: the inner IPv6
// header followed by the first 8+ bytes of its transport header.
func (v TimeExceededView) Payload() []byte { return v.buf[errorMessageHeaderSize:] }

// Packet returns the full underlying slice.
func (v TimeExceededView) Packet() []byte { return v.buf }

// DestinationUnreachableView is a read-only view over an ICMPv6 Destination
// Unreachable message.
type DestinationUnreachableView struct {
	buf []byte
}

// NewDestinationUnreachableView wraps buf as a Destination Unreachable
// message.
func NewDestinationUnreachableView(buf []byte) (DestinationUnreachableView, error) {
	if len(buf) < errorMessageHeaderSize {
		return DestinationUnreachableView{}, ErrPacketTooShort
	}
	return DestinationUnreachableView{buf: buf}, nil
}

// MinimumPacketSize returns the Destination Unreachable header size.
func (DestinationUnreachableView) MinimumPacketSize() int { return errorMessageHeaderSize }

// Payload returns the offending packet this error carries.
func (v DestinationUnreachableView) Payload() []byte { return v.buf[errorMessageHeaderSize:] }

// Packet returns the full underlying slice.
func (v DestinationUnreachableView) Packet() []byte { return v.buf }
