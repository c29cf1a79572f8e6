//go:build linux || darwin || freebsd || netbsd || openbsd

// Package rawsock builds the nonblocking IPv6 raw sockets the probe engine
// sends and receives on. It replaces the teacher's golang.org/x/net/icmp
// PacketConn usage: the engine hand-builds wire bytes (internal/wire) and
// needs the kernel to leave them alone, which a PacketConn does not permit.
package rawsock

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// Socket wraps a raw IPv6 socket file descriptor. It is not safe for
// concurrent use; the engine's concurrency model (spec §5) is "one socket,
// one synchronous caller" and rawsock does not add locking of its own.
type Socket struct {
	fd int
}

func newRawIPv6Socket(proto int) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_RAW, proto)
	if err != nil {
		return nil, fmt.Errorf("rawsock: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rawsock: set nonblocking: %w", err)
	}
	return &Socket{fd: fd}, nil
}

// MakeICMPSendSocket creates a nonblocking raw ICMPv6 socket used to send
// Echo Request probes.
func MakeICMPSendSocket() (*Socket, error) {
	return newRawIPv6Socket(unix.IPPROTO_ICMPV6)
}

// MakeUDPSendSocket creates a nonblocking raw UDP-over-IPv6 socket used to
// send UDP probes with a hand-built UDP header.
func MakeUDPSendSocket() (*Socket, error) {
	return newRawIPv6Socket(unix.IPPROTO_UDP)
}

// MakeRecvSocket creates a nonblocking raw ICMPv6 socket used to receive
// Echo Reply / Time Exceeded / Destination Unreachable responses, regardless
// of which protocol (ICMP or UDP) the outbound probe used: a misrouted or
// expired UDP probe always comes back as an ICMPv6 error.
func MakeRecvSocket() (*Socket, error) {
	return newRawIPv6Socket(unix.IPPROTO_ICMPV6)
}

// SetUnicastHopsV6 sets IPV6_UNICAST_HOPS, the IPv6 analogue of IPv4's TTL,
// controlling the hop limit on packets sent from this socket. Ported from
// the teacher's setIPv6HopLimit (probe/socket_unix.go), which used
// syscall.SetsockoptInt against the same option; rawsock uses
// golang.org/x/sys/unix throughout instead of syscall since it also owns
// socket creation and address marshalling, which syscall does not expose
// portably across the unix targets this package builds for.
func (s *Socket) SetUnicastHopsV6(hops int) error {
	if err := unix.SetsockoptInt(s.fd, unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS, hops); err != nil {
		return fmt.Errorf("rawsock: set IPV6_UNICAST_HOPS: %w", err)
	}
	return nil
}

// Bind binds the socket to a local IPv6 address and port.
func (s *Socket) Bind(addr netip.Addr, port uint16) error {
	sa := &unix.SockaddrInet6{Port: int(port), Addr: addr.As16()}
	if err := unix.Bind(s.fd, sa); err != nil {
		return fmt.Errorf("rawsock: bind %s port %d: %w", addr, port, err)
	}
	return nil
}

// SendTo writes b to the given destination address. port is only meaningful
// for protocols the kernel itself demultiplexes by port (it is not, for a
// raw IPv6 socket); callers building UDP probes must encode the real
// destination port in the UDP header itself (internal/wire) and pass port 0
// here, matching the original implementation's note that a nonzero port
// here makes the kernel reject the send with EINVAL.
func (s *Socket) SendTo(b []byte, addr netip.Addr, port uint16) error {
	sa := &unix.SockaddrInet6{Port: int(port), Addr: addr.As16()}
	if err := unix.Sendto(s.fd, b, 0, sa); err != nil {
		return fmt.Errorf("rawsock: sendto %s: %w", addr, err)
	}
	return nil
}

// ErrNotIPv6 indicates RecvFrom read a datagram whose source address the
// kernel did not report as an IPv6 socket address, which should not happen
// on an AF_INET6 raw socket.
var ErrNotIPv6 = errors.New("rawsock: recvfrom did not return an IPv6 address")

// RecvFrom attempts a single nonblocking read into buf. WouldBlock is
// reported to the caller as (0, zero-addr, unix.EAGAIN) unmapped: C5's
// RecvICMPProbe is the layer responsible for turning EAGAIN/EWOULDBLOCK into
// the engine's WouldBlock semantics (spec §4.5/§7), not rawsock.
func (s *Socket) RecvFrom(buf []byte) (int, netip.Addr, error) {
	n, from, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		return 0, netip.Addr{}, err
	}
	sa6, ok := from.(*unix.SockaddrInet6)
	if !ok {
		return n, netip.Addr{}, ErrNotIPv6
	}
	return n, netip.AddrFrom16(sa6.Addr), nil
}

// Close releases the underlying file descriptor.
func (s *Socket) Close() error {
	if err := unix.Close(s.fd); err != nil {
		return fmt.Errorf("rawsock: close: %w", err)
	}
	return nil
}
