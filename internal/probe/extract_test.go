package probe

import (
	"testing"

	"github.com/nexthop6/sixtrace/internal/wire"
)

// buildInnerEchoRequest synthesises the inner payload an ICMPv6 error
// carries for an ICMP probe: an IPv6 header followed by an EchoRequest.
func buildInnerEchoRequest(t *testing.T, id, seq uint16) []byte {
	t.Helper()
	buf := make([]byte, 64)
	buf[4], buf[5] = 0, byte(wire.EchoRequestView{}.MinimumPacketSize())
	buf[6] = byte(wire.NextHeaderICMPv6)
	ipv6, err := wire.NewIPv6View(buf)
	if err != nil {
		t.Fatal(err)
	}
	echo, err := wire.NewEchoRequestView(ipv6.Payload())
	if err != nil {
		t.Fatal(err)
	}
	echo.SetType()
	echo.SetIdentifier(id)
	echo.SetSequence(seq)
	return buf
}

// buildInnerUDP synthesises the inner payload for a UDP probe: an IPv6
// header followed by a UDP header with the given ports.
func buildInnerUDP(t *testing.T, srcPort, destPort uint16) []byte {
	t.Helper()
	buf := make([]byte, 56)
	buf[6] = byte(wire.NextHeaderUDP)
	ipv6, err := wire.NewIPv6View(buf)
	if err != nil {
		t.Fatal(err)
	}
	udp, err := wire.NewUDPView(ipv6.Payload())
	if err != nil {
		t.Fatal(err)
	}
	udp.SetSource(srcPort)
	udp.SetDestination(destPort)
	return buf
}

func TestExtractEchoRequestV6RoundTrip(t *testing.T) {
	inner := buildInnerEchoRequest(t, 0xbeef, 9)
	id, seq, err := extractEchoRequestV6(inner)
	if err != nil {
		t.Fatal(err)
	}
	if id != 0xbeef || seq != 9 {
		t.Errorf("(id, seq) = (0x%04x, %d), want (0xbeef, 9)", id, seq)
	}
}

// Scenario 2: UDP probe, TimeExceeded, FixedDest.
func TestExtractInnerV6UDPFixedDest(t *testing.T) {
	inner := buildInnerUDP(t, 5000, 33434)
	id, seq, err := extractInnerV6(inner, ProtocolUDP, FixedDest{Port: 33434})
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 || seq != 5000 {
		t.Errorf("(id, seq) = (%d, %d), want (0, 5000)", id, seq)
	}
}

// Scenario 3: UDP probe, TimeExceeded, FixedSrc.
func TestExtractInnerV6UDPFixedSrc(t *testing.T) {
	inner := buildInnerUDP(t, 33434, 5000)
	id, seq, err := extractInnerV6(inner, ProtocolUDP, FixedSrc{Port: 33434})
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 || seq != 5000 {
		t.Errorf("(id, seq) = (%d, %d), want (0, 5000)", id, seq)
	}
}

// Scenario 1 & 4: ICMP probe correlation is direction-independent.
func TestExtractInnerV6ICMP(t *testing.T) {
	inner := buildInnerEchoRequest(t, 0xbeef, 9)
	id, seq, err := extractInnerV6(inner, ProtocolICMP, NoneDirection{})
	if err != nil {
		t.Fatal(err)
	}
	if id != 0xbeef || seq != 9 {
		t.Errorf("(id, seq) = (0x%04x, %d), want (0xbeef, 9)", id, seq)
	}
}

func TestExtractInnerV6TCPUnimplemented(t *testing.T) {
	_, _, err := extractInnerV6(make([]byte, 48), ProtocolTCP, NoneDirection{})
	if err != ErrUnimplemented {
		t.Errorf("err = %v, want ErrUnimplemented", err)
	}
}

func TestRecvICMPProbeClassifiesTimeExceeded(t *testing.T) {
	innerUDP := buildInnerUDP(t, 5000, 33434)

	buf := make([]byte, 8+len(innerUDP))
	buf[0] = 3 // Time Exceeded
	copy(buf[8:], innerUDP)

	icmp, err := wire.NewICMPView(buf)
	if err != nil {
		t.Fatal(err)
	}
	if icmp.ICMPType() != wire.ICMPv6TypeTimeExceeded {
		t.Fatalf("ICMPType() = %v, want TimeExceeded", icmp.ICMPType())
	}

	view, err := wire.NewTimeExceededView(icmp.Packet())
	if err != nil {
		t.Fatal(err)
	}
	id, seq, err := extractInnerV6(view.Payload(), ProtocolUDP, FixedDest{Port: 33434})
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 || seq != 5000 {
		t.Errorf("(id, seq) = (%d, %d), want (0, 5000)", id, seq)
	}
}

func TestRecvICMPProbeClassifiesDestinationUnreachable(t *testing.T) {
	inner := buildInnerEchoRequest(t, 0xbeef, 9)

	buf := make([]byte, 8+len(inner))
	buf[0] = 1 // Destination Unreachable
	copy(buf[8:], inner)

	icmp, err := wire.NewICMPView(buf)
	if err != nil {
		t.Fatal(err)
	}
	if icmp.ICMPType() != wire.ICMPv6TypeDestinationUnreachable {
		t.Fatalf("ICMPType() = %v, want DestinationUnreachable", icmp.ICMPType())
	}

	view, err := wire.NewDestinationUnreachableView(icmp.Packet())
	if err != nil {
		t.Fatal(err)
	}
	id, seq, err := extractInnerV6(view.Payload(), ProtocolICMP, NoneDirection{})
	if err != nil {
		t.Fatal(err)
	}
	if id != 0xbeef || seq != 9 {
		t.Errorf("(id, seq) = (0x%04x, %d), want (0xbeef, 9)", id, seq)
	}
}

func TestRecvICMPProbeEchoReplyClassification(t *testing.T) {
	buf := make([]byte, wire.EchoRequestView{}.MinimumPacketSize())
	req, err := wire.NewEchoRequestView(buf)
	if err != nil {
		t.Fatal(err)
	}
	req.SetIdentifier(0x1234)
	req.SetSequence(7)
	buf[0] = 129 // Echo Reply

	icmp, err := wire.NewICMPView(buf)
	if err != nil {
		t.Fatal(err)
	}
	if icmp.ICMPType() != wire.ICMPv6TypeEchoReply {
		t.Fatalf("ICMPType() = %v, want EchoReply", icmp.ICMPType())
	}

	reply, err := wire.NewEchoReplyView(icmp.Packet())
	if err != nil {
		t.Fatal(err)
	}
	if reply.Identifier() != 0x1234 || reply.Sequence() != 7 {
		t.Errorf("(id, seq) = (0x%04x, %d), want (0x1234, 7)", reply.Identifier(), reply.Sequence())
	}
}
