package resolver

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// LookupTeamCymruASN queries Team Cymru's DNS-based IP-to-ASN service for
// the autonomous system announcing addr. It reports ok=false on any
// failure; this is the single implementation of the lookup, shared by the
// lazy per-hop path below (LazyReverseLookupWithASInfo) and the batch path
// in internal/enrich, which previously carried its own byte-for-byte copy.
func LookupTeamCymruASN(ctx context.Context, addr netip.Addr) (ASInfo, bool) {
	return lookupASN(ctx, addr)
}

// lookupASN does the actual query. ASN lookup is a best-effort addition to
// a reverse-DNS result, never a reason to fail the reverse lookup itself.
func lookupASN(ctx context.Context, addr netip.Addr) (ASInfo, bool) {
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return ASInfo{}, false
	}

	query := cymruQuery(addr)
	if query == "" {
		return ASInfo{}, false
	}

	records, err := net.DefaultResolver.LookupTXT(ctx, query)
	if err != nil || len(records) == 0 {
		return ASInfo{}, false
	}

	info, ok := parseCymruOrigin(records[0])
	if !ok {
		return ASInfo{}, false
	}

	if name, ok := lookupASName(ctx, info.Number); ok {
		info.Org = name
	}
	return info, true
}

// cymruQuery builds the origin[6].asn.cymru.com query name for addr: IPv4
// addresses reverse their dotted octets, IPv6 addresses reverse their
// nibbles, per https://www.team-cymru.com/ip-asn-mapping.
func cymruQuery(addr netip.Addr) string {
	if addr.Is4() {
		b := addr.As4()
		return fmt.Sprintf("%d.%d.%d.%d.origin.asn.cymru.com", b[3], b[2], b[1], b[0])
	}
	b := addr.As16()
	var nibbles []string
	for i := len(b) - 1; i >= 0; i-- {
		nibbles = append(nibbles, fmt.Sprintf("%x", b[i]&0x0f))
		nibbles = append(nibbles, fmt.Sprintf("%x", b[i]>>4))
	}
	return strings.Join(nibbles, ".") + ".origin6.asn.cymru.com"
}

// parseCymruOrigin parses a "ASN | IP/Prefix | Country | Registry | Date"
// TXT record.
func parseCymruOrigin(txt string) (ASInfo, bool) {
	parts := strings.Split(txt, "|")
	if len(parts) < 3 {
		return ASInfo{}, false
	}
	asn, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return ASInfo{}, false
	}
	return ASInfo{
		Number:  uint32(asn),
		Country: strings.TrimSpace(parts[2]),
	}, true
}

// lookupASName queries Team Cymru for the registered name of asn.
func lookupASName(ctx context.Context, asn uint32) (string, bool) {
	records, err := net.DefaultResolver.LookupTXT(ctx, fmt.Sprintf("AS%d.asn.cymru.com", asn))
	if err != nil || len(records) == 0 {
		return "", false
	}
	// Format: "ASN | Country | Registry | Date | Name"
	parts := strings.Split(records[0], "|")
	if len(parts) < 5 {
		return "", false
	}
	return strings.TrimSpace(parts[4]), true
}
