package probe

import (
	"fmt"
	"net/netip"

	"github.com/nexthop6/sixtrace/internal/rawsock"
	"github.com/nexthop6/sixtrace/internal/wire"
)

var (
	ipv6HeaderSize   = wire.IPv6View{}.MinimumPacketSize()
	icmpv6HeaderSize = wire.EchoRequestView{}.MinimumPacketSize()
	udpHeaderSize    = wire.UDPView{}.MinimumPacketSize()
)

// DispatchICMPProbe builds an ICMPv6 Echo Request for probe and sends it
// from sock, ported step for step from the original implementation's
// dispatch_icmp_probe (original_source/src/tracing/net/ipv6.rs): validate
// size, build the packet in a reused stack-sized buffer, set the pseudo-
// header checksum, bind to (src, 0), set the hop limit, send to (dst, 0).
func DispatchICMPProbe(sock *rawsock.Socket, p Probe, src, dst netip.Addr, id TraceID, size PacketSize, pattern PayloadPattern) error {
	var buf [MaxPacketSize]byte
	echo, err := buildEchoRequestPacket(buf[:], src, dst, id, p.Sequence, size, pattern)
	if err != nil {
		return err
	}

	if err := sock.Bind(src, 0); err != nil {
		return err
	}
	if err := sock.SetUnicastHopsV6(int(p.TTL)); err != nil {
		return err
	}
	if err := sock.SendTo(echo.Packet(), dst, 0); err != nil {
		return err
	}
	return nil
}

// DispatchUDPProbe builds a UDP segment for probe and sends it from sock,
// ported from dispatch_udp_probe in the same original source file. The
// destination socket address's port is always zero: the kernel derives the
// real destination port from the UDP segment itself, and setting it here
// makes the send fail with EINVAL.
func DispatchUDPProbe(sock *rawsock.Socket, p Probe, src, dst netip.Addr, direction PortDirection, size PacketSize, pattern PayloadPattern) error {
	srcPort, destPort, err := udpPorts(direction, p.Sequence)
	if err != nil {
		return err
	}

	var buf [MaxPacketSize]byte
	udp, err := buildUDPPacket(buf[:], src, dst, srcPort, destPort, size, pattern)
	if err != nil {
		return err
	}

	if err := sock.Bind(src, srcPort); err != nil {
		return err
	}
	if err := sock.SetUnicastHopsV6(int(p.TTL)); err != nil {
		return err
	}
	if err := sock.SendTo(udp.Packet(), dst, 0); err != nil {
		return err
	}
	return nil
}

// udpPorts resolves a PortDirection and probe sequence into concrete
// source/destination ports, per spec.md §4.4.2. FixedBoth and None are not
// supported for IPv6.
func udpPorts(direction PortDirection, seq Sequence) (src, dest uint16, err error) {
	switch d := direction.(type) {
	case FixedSrc:
		return d.Port, uint16(seq), nil
	case FixedDest:
		return uint16(seq), d.Port, nil
	default:
		return 0, 0, fmt.Errorf("probe: UDP port direction %T: %w", direction, ErrUnimplemented)
	}
}

// buildEchoRequestPacket constructs an ICMPv6 Echo Request into buf (which
// must have capacity for MaxPacketSize bytes), with identifier and sequence
// copied verbatim and the pseudo-header checksum set.
func buildEchoRequestPacket(buf []byte, src, dst netip.Addr, id TraceID, seq Sequence, size PacketSize, pattern PayloadPattern) (wire.EchoRequestView, error) {
	if int(size) > MaxPacketSize {
		return wire.EchoRequestView{}, NewInvalidPacketSizeError(int(size))
	}
	payloadSize := icmpPayloadSize(int(size))

	echo, err := wire.NewEchoRequestView(buf[:icmpv6HeaderSize+payloadSize])
	if err != nil {
		return wire.EchoRequestView{}, err
	}
	echo.SetType()
	echo.SetCode(0)
	echo.SetIdentifier(uint16(id))
	echo.SetSequence(uint16(seq))
	fillPattern(echo.Payload(), pattern)
	echo.SetChecksum(wire.PseudoHeaderChecksum(echo.Packet(), src, dst, wire.NextHeaderICMPv6))
	return echo, nil
}

// buildUDPPacket constructs a UDP segment into buf with the given ports and
// the pseudo-header checksum set, including the RFC 768 zero-to-0xFFFF
// substitution.
func buildUDPPacket(buf []byte, src, dst netip.Addr, srcPort, destPort uint16, size PacketSize, pattern PayloadPattern) (wire.UDPView, error) {
	if int(size) > MaxPacketSize {
		return wire.UDPView{}, NewInvalidPacketSizeError(int(size))
	}
	payloadSize := udpPayloadSize(int(size))
	packetLen := udpHeaderSize + payloadSize

	udp, err := wire.NewUDPView(buf[:packetLen])
	if err != nil {
		return wire.UDPView{}, err
	}
	udp.SetSource(srcPort)
	udp.SetDestination(destPort)
	udp.SetLength(uint16(packetLen))
	fillPattern(udp.Payload(), pattern)
	udp.SetChecksum(wire.UDPChecksum(udp.Packet(), src, dst))
	return udp, nil
}

func fillPattern(b []byte, pattern PayloadPattern) {
	for i := range b {
		b[i] = byte(pattern)
	}
}

func icmpPayloadSize(packetSize int) int {
	return packetSize - ipv6HeaderSize - icmpv6HeaderSize
}

func udpPayloadSize(packetSize int) int {
	return packetSize - ipv6HeaderSize - udpHeaderSize
}
