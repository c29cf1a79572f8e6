//go:build linux || darwin || freebsd || netbsd || openbsd

package rawsock

import (
	"net/netip"
	"os"
	"testing"
)

// canCreateRawSocket reports whether the test process has the privileges
// raw IPv6 sockets require.
func canCreateRawSocket() bool {
	return os.Getuid() == 0
}

func TestMakeICMPSendSocketBindAndHopLimit(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	sock, err := MakeICMPSendSocket()
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()

	if err := sock.Bind(netip.IPv6Loopback(), 0); err != nil {
		t.Errorf("Bind() error = %v", err)
	}
	if err := sock.SetUnicastHopsV6(64); err != nil {
		t.Errorf("SetUnicastHopsV6() error = %v", err)
	}
}

func TestMakeRecvSocketWouldBlock(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	sock, err := MakeRecvSocket()
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()

	buf := make([]byte, 1024)
	_, _, err = sock.RecvFrom(buf)
	if err == nil {
		t.Fatal("expected WouldBlock error on idle nonblocking socket, got nil")
	}
}
