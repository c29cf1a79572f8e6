package rawsock

import (
	"net"
	"net/netip"
)

// LookupInterfaceAddr returns the first IPv6 address assigned to the named
// network interface. It is the Go equivalent of the original implementation's
// getifaddrs-based lookup (original_source/src/tracing/net/ipv6.rs,
// lookup_interface_addr): walk the interface's addresses, return the first
// one that parses as IPv6, fail with ErrUnknownInterface otherwise.
func LookupInterfaceAddr(name string) (netip.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return netip.Addr{}, ErrUnknownInterface
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}, ErrUnknownInterface
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		addr = addr.Unmap()
		if addr.Is6() {
			return addr, nil
		}
	}
	return netip.Addr{}, ErrUnknownInterface
}
