// Package probe builds and dispatches IPv6 ICMP/UDP probes (C4) and
// extracts their responses (C5), on top of the codecs in internal/wire and
// the sockets in internal/rawsock.
package probe

import (
	"net/netip"
	"time"
)

// MaxPacketSize is the engine-wide maximum packet size, including the IPv6
// header. Requests exceeding it fail with InvalidPacketSize.
const MaxPacketSize = 1024

// TraceID is the per-session identifier embedded in ICMP Echo's identifier
// field, distinguishing concurrent traces sharing one socket.
type TraceID uint16

// Sequence uniquely tags an outgoing probe so its reply can be matched back.
type Sequence uint16

// TTL is the IPv6 hop limit a probe is sent with.
type TTL uint8

// PacketSize is the overall wire size of a probe, IPv6 header included.
type PacketSize uint16

// PayloadPattern is the byte value used to fill a probe's payload.
type PayloadPattern uint8

// Probe is the immutable input record C4 dispatches: a sequence number, a
// hop limit, and the time the scheduler is about to send it.
type Probe struct {
	Sequence Sequence
	TTL      TTL
	SentAt   time.Time
}

// TracerProtocol selects which wire protocol a trace session probes with.
type TracerProtocol int

// Supported tracer protocols. TCP is reserved: dispatch and extraction both
// fail with ErrUnimplemented.
const (
	ProtocolICMP TracerProtocol = iota
	ProtocolUDP
	ProtocolTCP
)

// String renders the protocol the way the teacher's trace.ProbeMethod does.
func (p TracerProtocol) String() string {
	switch p {
	case ProtocolICMP:
		return "icmp"
	case ProtocolUDP:
		return "udp"
	case ProtocolTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

// PortDirection is a closed variant set (sealed interface standing in for
// the source's tagged union) determining which UDP/TCP port slot carries
// the probe's sequence number. isPortDirection is unexported so no type
// outside this package can add a variant.
type PortDirection interface {
	isPortDirection()
}

// FixedSrc fixes the source port; the destination port carries the probe
// sequence.
type FixedSrc struct {
	Port uint16
}

func (FixedSrc) isPortDirection() {}

// FixedDest fixes the destination port; the source port carries the probe
// sequence.
type FixedDest struct {
	Port uint16
}

func (FixedDest) isPortDirection() {}

// FixedBoth fixes both ports. Not supported for IPv6: DispatchUDPProbe
// rejects it with ErrUnimplemented. The inner-payload extractor does not
// reject it; like every direction other than FixedDest, it reads the
// sequence from the inner UDP destination port.
type FixedBoth struct {
	Src, Dest uint16
}

func (FixedBoth) isPortDirection() {}

// NoneDirection selects neither port. Not supported for IPv6, same as
// FixedBoth.
type NoneDirection struct{}

func (NoneDirection) isPortDirection() {}

// ProbeResponseData is the shared payload carried by every ProbeResponse
// variant: when the reply arrived, who sent it, and the recovered
// (identifier, sequence) pair of the probe it answers.
type ProbeResponseData struct {
	RecvTime   time.Time
	SourceAddr netip.Addr
	Identifier uint16
	Sequence   uint16
}

// ProbeResponse is the sealed result of a successful classification in
// RecvICMPProbe.
type ProbeResponse interface {
	isProbeResponse()
}

// TimeExceeded wraps an ICMPv6 Time Exceeded response.
type TimeExceeded struct {
	Data ProbeResponseData
}

func (TimeExceeded) isProbeResponse() {}

// DestinationUnreachable wraps an ICMPv6 Destination Unreachable response.
type DestinationUnreachable struct {
	Data ProbeResponseData
}

func (DestinationUnreachable) isProbeResponse() {}

// EchoReply wraps an ICMPv6 Echo Reply response (ICMP protocol only).
type EchoReply struct {
	Data ProbeResponseData
}

func (EchoReply) isProbeResponse() {}
