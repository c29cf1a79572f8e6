// Package resolver provides a lazy, cached reverse-DNS and AS-info lookup
// service for hops discovered during a trace. Unlike a plain net.Resolver
// call, a lookup never blocks the caller: LazyReverseLookup returns whatever
// is known about an address right now (Pending, if a lookup was just
// started) and the caller polls again later once the hop is re-rendered.
package resolver

import "time"

// ResolveMethod selects which DNS servers a Resolver issues queries against.
type ResolveMethod int

const (
	// System uses the operating system's configured resolver.
	System ResolveMethod = iota
	// Cloudflare queries 1.1.1.1 directly, bypassing the system resolver.
	Cloudflare
	// Google queries 8.8.8.8 directly, bypassing the system resolver.
	Google
)

// String renders the method the way trace.ProbeMethod renders itself.
func (m ResolveMethod) String() string {
	switch m {
	case System:
		return "system"
	case Cloudflare:
		return "cloudflare"
	case Google:
		return "google"
	default:
		return "unknown"
	}
}

// IpAddrFamily restricts which address families a Resolver will resolve.
type IpAddrFamily int

const (
	// IPv4Only resolves only A/PTR records for IPv4 addresses.
	IPv4Only IpAddrFamily = iota
	// IPv6Only resolves only AAAA/PTR records for IPv6 addresses.
	IPv6Only
	// Both resolves either family.
	Both
)

// String renders the family the way trace.ProbeMethod renders itself.
func (f IpAddrFamily) String() string {
	switch f {
	case IPv4Only:
		return "ipv4"
	case IPv6Only:
		return "ipv6"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Config configures a Resolver.
type Config struct {
	Method  ResolveMethod
	Family  IpAddrFamily
	Timeout time.Duration
}

// DefaultConfig returns a Config suited to an IPv6-only trace.
func DefaultConfig() Config {
	return Config{
		Method:  System,
		Family:  IPv6Only,
		Timeout: 3 * time.Second,
	}
}

// ASInfo is the autonomous-system data optionally attached to a resolved
// hostname.
type ASInfo struct {
	Number  uint32
	Org     string
	Country string
}

// HostVariant is a closed variant set (sealed interface standing in for the
// source's tagged union) describing whether a resolved or not-found result
// carries AS info alongside its hostnames. isHostVariant is unexported so no
// type outside this package can add a variant.
type HostVariant interface {
	isHostVariant()
}

// Normal carries hostnames with no AS info.
type Normal struct {
	Hostnames []string
}

func (Normal) isHostVariant() {}

// WithASInfo carries hostnames alongside the AS that announces the address.
type WithASInfo struct {
	Hostnames []string
	AS        ASInfo
}

func (WithASInfo) isHostVariant() {}

// DNSEntry is the sealed result of a lazy reverse lookup. At most one
// lookup attempt is ever in flight per address; DNSEntry is what the
// caller observes of that attempt's current state.
type DNSEntry interface {
	isDNSEntry()
}

// Pending means a lookup for this address was just started (or is already
// in flight) and has not yet produced a result.
type Pending struct{}

func (Pending) isDNSEntry() {}

// Resolved means the lookup completed and found at least one name.
type Resolved struct {
	Variant HostVariant
}

func (Resolved) isDNSEntry() {}

// NotFound means the lookup completed with no matching name (NXDOMAIN or
// equivalent), optionally still carrying AS info.
type NotFound struct {
	Variant HostVariant
}

func (NotFound) isDNSEntry() {}

// Timeout means the lookup did not complete within Config.Timeout. A
// subsequent LazyReverseLookup call for the same address starts a retry and
// itself still returns Timeout; calls made while that retry is in flight
// return Pending.
type Timeout struct{}

func (Timeout) isDNSEntry() {}

// Failed means the lookup errored for a reason other than a timeout
// (e.g. the resolver itself was unreachable).
type Failed struct {
	Err error
}

func (Failed) isDNSEntry() {}
