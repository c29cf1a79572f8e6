package resolver

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"
)

// Resolver performs lazy, cached reverse-DNS lookups. The zero value is not
// usable; construct one with Start. A Resolver is cheap to copy by value:
// every copy shares the same underlying cache and in-flight lookups, so it
// can be handed to concurrent workers the way the teacher hands out its
// *enrich.Enricher pointer.
type Resolver struct {
	shared *sharedState
}

type sharedState struct {
	cfg      Config
	resolver *net.Resolver

	mu      sync.Mutex
	entries map[netip.Addr]*entryState
	closed  bool
}

// entryState is the lookup state for a single address: at most one lookup
// goroutine is ever in flight for it at a time.
type entryState struct {
	mu          sync.Mutex
	result      DNSEntry
	inFlight    bool
	attemptedAt time.Time
}

// Start constructs a Resolver ready for concurrent use.
func Start(cfg Config) (*Resolver, error) {
	if cfg.Timeout <= 0 {
		return nil, ErrInvalidTimeout
	}

	var dnsResolver *net.Resolver
	switch cfg.Method {
	case Cloudflare:
		dnsResolver = dialResolver("1.1.1.1:53")
	case Google:
		dnsResolver = dialResolver("8.8.8.8:53")
	default:
		dnsResolver = net.DefaultResolver
	}

	return &Resolver{
		shared: &sharedState{
			cfg:      cfg,
			resolver: dnsResolver,
			entries:  make(map[netip.Addr]*entryState),
		},
	}, nil
}

// dialResolver builds a *net.Resolver that talks directly to addr instead of
// the system-configured nameserver.
func dialResolver(addr string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
}

// LazyReverseLookup returns whatever is currently known about addr's
// hostname, starting a background lookup the first time addr is seen and
// retrying lazily once a prior attempt has timed out.
func (r *Resolver) LazyReverseLookup(addr netip.Addr) DNSEntry {
	return r.lazyLookup(addr, false)
}

// LazyReverseLookupWithASInfo is LazyReverseLookup plus the autonomous
// system announcing addr, looked up via Team Cymru's DNS service.
func (r *Resolver) LazyReverseLookupWithASInfo(addr netip.Addr) DNSEntry {
	return r.lazyLookup(addr, true)
}

func (r *Resolver) lazyLookup(addr netip.Addr, withAS bool) DNSEntry {
	s := r.shared

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Failed{Err: ErrClosed}
	}
	st, ok := s.entries[addr]
	if !ok {
		st = &entryState{result: Pending{}}
		s.entries[addr] = st
	}
	s.mu.Unlock()

	if !ok {
		st.start(s, addr, withAS)
		return Pending{}
	}

	st.mu.Lock()
	result := st.result
	retry := !st.inFlight
	if _, isTimeout := result.(Timeout); !isTimeout {
		retry = false
	}
	st.mu.Unlock()

	if retry {
		st.start(s, addr, withAS)
	}
	return result
}

// start launches the background lookup goroutine for st, unless one is
// already running.
func (st *entryState) start(s *sharedState, addr netip.Addr, withAS bool) {
	st.mu.Lock()
	if st.inFlight {
		st.mu.Unlock()
		return
	}
	st.inFlight = true
	st.result = Pending{}
	st.mu.Unlock()

	go func() {
		entry := s.resolve(addr, withAS)
		st.mu.Lock()
		st.result = entry
		st.inFlight = false
		st.attemptedAt = time.Now()
		st.mu.Unlock()
	}()
}

// resolve performs the blocking lookup itself; it always runs off the
// caller's goroutine.
func (s *sharedState) resolve(addr netip.Addr, withAS bool) DNSEntry {
	if !s.familyAllowed(addr) {
		return NotFound{Variant: Normal{}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	names, err := s.resolver.LookupAddr(ctx, addr.String())

	var as ASInfo
	haveAS := false
	if withAS {
		if info, ok := lookupASN(ctx, addr); ok {
			as, haveAS = info, true
		}
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Timeout{}
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return notFoundEntry(haveAS, as)
		}
		return Failed{Err: err}
	}

	hostnames := make([]string, 0, len(names))
	for _, n := range names {
		hostnames = append(hostnames, strings.TrimSuffix(n, "."))
	}
	if len(hostnames) == 0 {
		return notFoundEntry(haveAS, as)
	}
	if haveAS {
		return Resolved{Variant: WithASInfo{Hostnames: hostnames, AS: as}}
	}
	return Resolved{Variant: Normal{Hostnames: hostnames}}
}

func notFoundEntry(haveAS bool, as ASInfo) DNSEntry {
	if haveAS {
		return NotFound{Variant: WithASInfo{AS: as}}
	}
	return NotFound{Variant: Normal{}}
}

func (s *sharedState) familyAllowed(addr netip.Addr) bool {
	switch s.cfg.Family {
	case IPv4Only:
		return addr.Is4()
	case IPv6Only:
		return addr.Is6() && !addr.Is4In6()
	default:
		return true
	}
}

// Close discards all cached entries. In-flight lookup goroutines finish on
// their own timeout but their results are no longer observable.
func (r *Resolver) Close() error {
	s := r.shared
	s.mu.Lock()
	s.closed = true
	s.entries = make(map[netip.Addr]*entryState)
	s.mu.Unlock()
	return nil
}
