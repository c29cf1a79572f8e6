package trace

import (
	"net"
	"time"

	"github.com/nexthop6/sixtrace/internal/enrich"
)

// ProbeMethod represents the type of probe to use.
type ProbeMethod int

const (
	// ProbeICMP uses ICMPv6 Echo Request packets
	ProbeICMP ProbeMethod = iota
	// ProbeUDP uses UDP segments to high ports
	ProbeUDP
	// ProbeTCP is reserved: the engine's inner-packet extraction for TCP
	// is unimplemented (internal/probe.ErrUnimplemented), matching the
	// original implementation's TCP support being incomplete for IPv6.
	ProbeTCP
)

// String returns the string representation of the probe method.
func (p ProbeMethod) String() string {
	switch p {
	case ProbeICMP:
		return "icmp"
	case ProbeUDP:
		return "udp"
	case ProbeTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

// Config holds the configuration for a trace operation.
type Config struct {
	// Probe settings
	ProbeMethod ProbeMethod   // Probe method to use (default: ICMP)
	ProbeCount  int           // Number of probes per hop (default: 3)
	MaxHops     int           // Maximum TTL/hops (default: 30)
	FirstHop    int           // Starting TTL (default: 1)
	Timeout     time.Duration // Per-probe timeout (default: 3s)

	// Network settings
	Interface string // Specific network interface to use
	SourceIP  net.IP // Source IPv6 address to use
	DestPort  int    // Destination port (for UDP probes)

	// Mode settings
	Sequential     bool // Use sequential mode instead of concurrent
	MaxConcurrency int  // Maximum concurrent probes (default: 30)

	// Rate limiting
	PacketsPerSecond int // Not read by the Tracer; probes are sent without rate limiting

	// Enrichment settings
	EnableEnrichment bool // Enable any enrichment
	EnableRDNS       bool // Enable reverse DNS lookup
	EnableASN        bool // Enable ASN lookup
	EnableGeoIP      bool // Enable GeoIP lookup

	// MaxMindDB, if set, is used for offline/faster ASN and GeoIP lookups
	// in place of the online APIs (Team Cymru, ip-api.com).
	MaxMindDB *enrich.MaxMindDB

	// Callback for real-time hop updates (streaming output)
	OnHop func(hop *Hop) // Called after each hop is probed
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProbeMethod:      ProbeICMP,
		ProbeCount:       3,
		MaxHops:          30,
		FirstHop:         1,
		Timeout:          3 * time.Second,
		DestPort:         33434, // Standard traceroute UDP port
		MaxConcurrency:   30,
		EnableEnrichment: true,
		EnableRDNS:       true,
		EnableASN:        true,
		EnableGeoIP:      true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxHops < 1 || c.MaxHops > 255 {
		return ErrInvalidMaxHops
	}
	if c.ProbeCount < 1 || c.ProbeCount > 10 {
		return ErrInvalidProbeCount
	}
	if c.Timeout < 100*time.Millisecond {
		return ErrInvalidTimeout
	}
	if c.FirstHop < 1 || c.FirstHop > c.MaxHops {
		return ErrInvalidFirstHop
	}
	return nil
}
