package enrich

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/nexthop6/sixtrace/internal/resolver"
)

// ASNInfo contains ASN information for an IP address.
type ASNInfo struct {
	Number  uint32
	Org     string
	Country string
}

// ASNLookup defines the interface for ASN lookups.
type ASNLookup interface {
	Lookup(ctx context.Context, ip net.IP) (*ASNInfo, error)
	Close() error
}

// TeamCymruASN implements ASN lookup using Team Cymru's DNS service.
// This is a free service that doesn't require any database files. The
// query itself lives in internal/resolver.LookupTeamCymruASN, shared with
// internal/resolver's LazyReverseLookupWithASInfo; this type adds the batch-enrichment
// cache internal/resolver's lazy per-address memoization doesn't need.
// See: https://www.team-cymru.com/ip-asn-mapping
type TeamCymruASN struct {
	timeout time.Duration
	cache   *Cache
}

// TeamCymruConfig holds configuration for Team Cymru ASN lookups.
type TeamCymruConfig struct {
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultTeamCymruConfig returns default configuration.
func DefaultTeamCymruConfig() TeamCymruConfig {
	return TeamCymruConfig{
		Timeout:   3 * time.Second,
		CacheSize: 1000,
		CacheTTL:  1 * time.Hour, // ASN data changes infrequently
	}
}

// NewTeamCymruASN creates a new Team Cymru ASN resolver.
func NewTeamCymruASN(config TeamCymruConfig) *TeamCymruASN {
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}

	var cache *Cache
	if config.CacheSize > 0 {
		cache = NewCache(config.CacheSize, config.CacheTTL)
	}

	return &TeamCymruASN{
		timeout: config.Timeout,
		cache:   cache,
	}
}

// Lookup performs an ASN lookup for ip, an IPv6 address per spec.md's
// IPv6-only scope (internal/resolver.LookupTeamCymruASN still dispatches
// on address family, since Team Cymru's service covers both).
func (t *TeamCymruASN) Lookup(ctx context.Context, ip net.IP) (*ASNInfo, error) {
	if ip == nil {
		return nil, nil
	}

	addr, ok := netip.AddrFromSlice(ip.To16())
	if !ok {
		return nil, nil
	}
	addr = addr.Unmap()

	ipStr := addr.String()

	if t.cache != nil {
		if cached, ok := t.cache.Get(ipStr); ok {
			if cached == nil {
				return nil, nil
			}
			return cached.(*ASNInfo), nil
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	info, ok := resolver.LookupTeamCymruASN(lookupCtx, addr)
	if !ok {
		if t.cache != nil {
			t.cache.Set(ipStr, nil)
		}
		return nil, nil
	}

	result := &ASNInfo{Number: info.Number, Org: info.Org, Country: info.Country}

	if t.cache != nil {
		t.cache.Set(ipStr, result)
	}

	return result, nil
}

// Close releases resources.
func (t *TeamCymruASN) Close() error {
	if t.cache != nil {
		t.cache.Clear()
	}
	return nil
}
