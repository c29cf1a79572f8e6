package probe

import (
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/nexthop6/sixtrace/internal/rawsock"
)

// canCreateRawSocket reports whether the test process has the privileges
// raw IPv6 sockets require, matching the teacher's icmp_test.go gate.
func canCreateRawSocket() bool {
	return os.Getuid() == 0
}

// Scenario 6: WouldBlock. An idle nonblocking receive socket reports
// (nil, nil), never an error.
func TestRecvICMPProbeWouldBlock(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	sock, err := rawsock.MakeRecvSocket()
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()

	resp, err := RecvICMPProbe(sock, ProtocolICMP, NoneDirection{})
	if err != nil {
		t.Fatalf("RecvICMPProbe() error = %v, want nil", err)
	}
	if resp != nil {
		t.Fatalf("RecvICMPProbe() = %v, want nil", resp)
	}
}

func TestDispatchICMPProbeToLoopback(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	sock, err := rawsock.MakeICMPSendSocket()
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()

	p := Probe{Sequence: 7, TTL: 64, SentAt: time.Now()}
	err = DispatchICMPProbe(sock, p, netip.IPv6Loopback(), netip.IPv6Loopback(), 0x1234, 80, 0x5a)
	if err != nil {
		t.Fatalf("DispatchICMPProbe() error = %v", err)
	}
}

func TestDispatchICMPProbeOversizeRejectedBeforeSend(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	sock, err := rawsock.MakeICMPSendSocket()
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()

	p := Probe{Sequence: 1, TTL: 64, SentAt: time.Now()}
	err = DispatchICMPProbe(sock, p, netip.IPv6Loopback(), netip.IPv6Loopback(), 0, 2048, 0)
	if !IsInvalidPacketSize(err) {
		t.Errorf("err = %v, want InvalidPacketSize", err)
	}
}
