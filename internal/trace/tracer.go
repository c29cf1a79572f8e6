// Package trace provides traceroute functionality.
package trace

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/nexthop6/sixtrace/internal/enrich"
	"github.com/nexthop6/sixtrace/internal/probe"
	"github.com/nexthop6/sixtrace/internal/rawsock"
)

// defaultPacketSize is the overall wire size (IPv6 header included) a
// reference-scheduler probe is sent with when the caller has no specific
// payload requirement.
const defaultPacketSize probe.PacketSize = 80

// pollInterval is how long recvLoop sleeps before re-polling the shared
// receive socket after finding it empty. The engine itself performs no blocking
// (spec §5); the fixed-interval tick lives entirely in this scheduler.
const pollInterval = 2 * time.Millisecond

// Tracer performs IPv6 network path tracing using the raw-socket probe
// engine (internal/probe, internal/rawsock) directly: it is the reference
// scheduler the engine's contract (spec §5/§6) describes, replacing the
// teacher's golang.org/x/net/icmp-based ICMPProber/UDPProber/ParisProber
// family, which cannot hand-build the wire bytes the engine demands.
type Tracer struct {
	config   *Config
	srcAddr  netip.Addr
	traceID  probe.TraceID
	icmpSock *rawsock.Socket
	udpSock  *rawsock.Socket
	recvSock *rawsock.Socket
	enricher *enrich.Enricher

	seqMu sync.Mutex
	seq   uint16

	// waiters demultiplexes the single shared, nonblocking recvSock across
	// however many probeHop calls are in flight concurrently (traceConcurrent
	// runs a worker pool per spec §5's scheduler-owned concurrency; the
	// engine itself stays single-threaded per socket). recvLoop is the only
	// goroutine that ever calls probe.RecvICMPProbe; it routes each reply to
	// the waiter registered for its recovered sequence number.
	waitersMu sync.Mutex
	waiters   map[uint16]chan probe.ProbeResponseData
	stopRecv  chan struct{}
	recvDone  chan struct{}
}

// New creates a new Tracer with the given configuration.
func New(config *Config) (*Tracer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ProbeMethod != ProbeICMP && config.ProbeMethod != ProbeUDP {
		return nil, fmt.Errorf("probe method %v: %w", config.ProbeMethod, probe.ErrUnimplemented)
	}

	src, err := resolveSourceAddr(config)
	if err != nil {
		return nil, err
	}

	icmpSock, err := rawsock.MakeICMPSendSocket()
	if err != nil {
		return nil, fmt.Errorf("create ICMP send socket: %w", err)
	}
	udpSock, err := rawsock.MakeUDPSendSocket()
	if err != nil {
		_ = icmpSock.Close()
		return nil, fmt.Errorf("create UDP send socket: %w", err)
	}
	recvSock, err := rawsock.MakeRecvSocket()
	if err != nil {
		_ = icmpSock.Close()
		_ = udpSock.Close()
		return nil, fmt.Errorf("create receive socket: %w", err)
	}

	var enricher *enrich.Enricher
	if config.EnableEnrichment {
		enricherConfig := enrich.EnricherConfig{
			EnableRDNS:  config.EnableRDNS,
			EnableASN:   config.EnableASN,
			EnableGeoIP: config.EnableGeoIP,
		}
		if config.MaxMindDB != nil {
			enricher = enrich.NewEnricherWithMaxMind(enricherConfig, config.MaxMindDB)
		} else {
			enricher = enrich.NewEnricher(enricherConfig)
		}
	}

	t := &Tracer{
		config:   config,
		srcAddr:  src,
		traceID:  probe.TraceID(uint16(time.Now().UnixNano())),
		icmpSock: icmpSock,
		udpSock:  udpSock,
		recvSock: recvSock,
		enricher: enricher,
		waiters:  make(map[uint16]chan probe.ProbeResponseData),
		stopRecv: make(chan struct{}),
		recvDone: make(chan struct{}),
	}

	go t.recvLoop()

	return t, nil
}

// recvLoop is the sole reader of recvSock. It runs for the Tracer's entire
// lifetime, dispatching each parsed reply to the waiter channel registered
// for its sequence number, if any probeHop call is still waiting on it.
func (t *Tracer) recvLoop() {
	defer close(t.recvDone)

	protocol := probeProtocol(t.config.ProbeMethod)
	direction := t.direction()

	for {
		select {
		case <-t.stopRecv:
			return
		default:
		}

		resp, err := probe.RecvICMPProbe(t.recvSock, protocol, direction)
		if err != nil {
			continue
		}
		if resp == nil {
			time.Sleep(pollInterval)
			continue
		}

		data, ok := responseData(resp)
		if !ok {
			continue
		}

		t.waitersMu.Lock()
		ch, found := t.waiters[data.Sequence]
		t.waitersMu.Unlock()
		if found {
			select {
			case ch <- data:
			default:
			}
		}
	}
}

// direction returns the PortDirection this tracer's probe method expects
// inner-packet extraction to use, per spec.md §4.4.2 — fixed for the life
// of the tracer, since ProbeMethod does not change between probeHop calls.
func (t *Tracer) direction() probe.PortDirection {
	if t.config.ProbeMethod == ProbeUDP {
		return probe.FixedDest{Port: uint16(t.config.DestPort)}
	}
	return probe.NoneDirection{}
}

// responseData extracts the common ProbeResponseData out of any
// ProbeResponse variant.
func responseData(resp probe.ProbeResponse) (probe.ProbeResponseData, bool) {
	switch r := resp.(type) {
	case probe.EchoReply:
		return r.Data, true
	case probe.TimeExceeded:
		return r.Data, true
	case probe.DestinationUnreachable:
		return r.Data, true
	default:
		return probe.ProbeResponseData{}, false
	}
}

// resolveSourceAddr picks the local IPv6 address probes are sent from: the
// configured SourceIP, the first IPv6 address on the configured Interface
// (internal/rawsock.LookupInterfaceAddr), or as a last resort the first IPv6
// address LookupInterfaceAddr returns for any up, non-loopback interface.
// That last-resort address is not checked for scope, so it can be link-local.
func resolveSourceAddr(config *Config) (netip.Addr, error) {
	if config.SourceIP != nil {
		addr, ok := netip.AddrFromSlice(config.SourceIP.To16())
		if !ok || !addr.Is6() {
			return netip.Addr{}, fmt.Errorf("source IP %s is not a valid IPv6 address", config.SourceIP)
		}
		return addr, nil
	}
	if config.Interface != "" {
		return rawsock.LookupInterfaceAddr(config.Interface)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("enumerate interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if addr, err := rawsock.LookupInterfaceAddr(iface.Name); err == nil {
			return addr, nil
		}
	}
	return netip.Addr{}, rawsock.ErrUnknownInterface
}

// Trace performs a traceroute to the specified target.
func (t *Tracer) Trace(ctx context.Context, target string) (*TraceResult, error) {
	dest, err := t.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	var hops []Hop
	if t.config.Sequential {
		hops, err = t.traceSequential(ctx, dest)
	} else {
		hops, err = t.traceConcurrent(ctx, dest)
	}
	if err != nil {
		return nil, err
	}

	if t.enricher != nil {
		t.enrichHops(ctx, hops)
	}

	return t.buildResult(target, dest, hops), nil
}

func (t *Tracer) enrichHops(ctx context.Context, hops []Hop) {
	ips := make([]net.IP, 0, len(hops))
	for _, hop := range hops {
		if hop.IP != nil {
			ips = append(ips, hop.IP)
		}
	}

	enrichResults := t.enricher.EnrichIPs(ctx, ips)

	for i := range hops {
		if hops[i].IP == nil {
			continue
		}
		result := enrichResults[hops[i].IP.String()]
		if result == nil {
			continue
		}
		hops[i].Hostname = result.Hostname
		if result.ASN != nil {
			hops[i].ASN = &ASNInfo{
				Number:  result.ASN.Number,
				Org:     result.ASN.Org,
				Country: result.ASN.Country,
			}
		}
		if result.Geo != nil {
			hops[i].Geo = &GeoInfo{
				Country:     result.Geo.Country,
				CountryCode: result.Geo.CountryCode,
				City:        result.Geo.City,
				Latitude:    result.Geo.Latitude,
				Longitude:   result.Geo.Longitude,
			}
		}
	}
}

// Close releases the sockets and enrichment resources held by the tracer.
func (t *Tracer) Close() error {
	close(t.stopRecv)
	<-t.recvDone

	var errs []error
	if err := t.icmpSock.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := t.udpSock.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := t.recvSock.Close(); err != nil {
		errs = append(errs, err)
	}
	if t.enricher != nil {
		if err := t.enricher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// resolveTarget resolves a hostname or IPv6 address string to a net.IP.
func (t *Tracer) resolveTarget(ctx context.Context, target string) (net.IP, error) {
	if ip := net.ParseIP(target); ip != nil {
		if ip.To4() != nil {
			return nil, fmt.Errorf("%s is an IPv4 address; this engine only traces IPv6", target)
		}
		return ip, nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip6", target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTargetResolution, target, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: no AAAA records for %s", ErrTargetResolution, target)
	}
	return ips[0], nil
}

// nextSequence returns the next probe sequence number, wrapping at 65536
// like any other uint16 counter. Safe for concurrent callers (traceConcurrent
// runs one probeHop per worker goroutine).
func (t *Tracer) nextSequence() probe.Sequence {
	t.seqMu.Lock()
	defer t.seqMu.Unlock()
	t.seq++
	return probe.Sequence(t.seq)
}

// traceSequential performs a sequential traceroute: one hop at a time.
func (t *Tracer) traceSequential(ctx context.Context, dest net.IP) ([]Hop, error) {
	hops := make([]Hop, 0, t.config.MaxHops)

	for ttl := t.config.FirstHop; ttl <= t.config.MaxHops; ttl++ {
		select {
		case <-ctx.Done():
			return hops, ctx.Err()
		default:
		}

		hop := t.probeHop(ctx, dest, ttl)
		hops = append(hops, hop)
		if t.config.OnHop != nil {
			t.config.OnHop(&hop)
		}

		if hop.Responded && hop.IP != nil && hop.IP.Equal(dest) {
			break
		}
	}

	return hops, nil
}

// probeHop sends ProbeCount probes for a single hop and aggregates RTTs,
// grounded on the teacher's probeHop but driving internal/probe directly
// instead of a probe.Prober abstraction.
func (t *Tracer) probeHop(ctx context.Context, dest net.IP, ttl int) Hop {
	hop := Hop{
		Number: ttl,
		RTTs:   make([]float64, 0, t.config.ProbeCount),
	}

	destAddr, ok := netip.AddrFromSlice(dest.To16())
	if !ok {
		return hop
	}

	var lastIP net.IP
	for i := 0; i < t.config.ProbeCount; i++ {
		select {
		case <-ctx.Done():
			hop.RTTs = append(hop.RTTs, -1)
			continue
		default:
		}

		seq := t.nextSequence()
		waiter := t.registerWaiter(seq)

		sentAt := time.Now()
		p := probe.Probe{Sequence: seq, TTL: probe.TTL(ttl), SentAt: sentAt}

		var dispatchErr error
		switch t.config.ProbeMethod {
		case ProbeICMP:
			dispatchErr = probe.DispatchICMPProbe(t.icmpSock, p, t.srcAddr, destAddr, t.traceID, defaultPacketSize, 0)
		case ProbeUDP:
			dispatchErr = probe.DispatchUDPProbe(t.udpSock, p, t.srcAddr, destAddr, t.direction(), defaultPacketSize, 0)
		}
		if dispatchErr != nil {
			t.deregisterWaiter(seq)
			hop.RTTs = append(hop.RTTs, -1)
			continue
		}

		data, responded := t.awaitResponse(ctx, waiter)
		t.deregisterWaiter(seq)
		if !responded {
			hop.RTTs = append(hop.RTTs, -1)
			continue
		}

		rtt := float64(data.RecvTime.Sub(sentAt).Microseconds()) / 1000.0
		hop.RTTs = append(hop.RTTs, rtt)
		lastIP = net.IP(data.SourceAddr.AsSlice())
	}

	if lastIP != nil {
		hop.IP = lastIP
		hop.Responded = true
	}

	hop.AvgRTT, hop.MinRTT, hop.MaxRTT, hop.Jitter = calculateRTTStats(hop.RTTs)
	hop.LossPercent = calculateLossPercent(hop.RTTs)

	return hop
}

// registerWaiter creates and registers the channel recvLoop will deliver
// seq's reply to, if one arrives before deregisterWaiter is called.
func (t *Tracer) registerWaiter(seq probe.Sequence) chan probe.ProbeResponseData {
	ch := make(chan probe.ProbeResponseData, 1)
	t.waitersMu.Lock()
	t.waiters[uint16(seq)] = ch
	t.waitersMu.Unlock()
	return ch
}

func (t *Tracer) deregisterWaiter(seq probe.Sequence) {
	t.waitersMu.Lock()
	delete(t.waiters, uint16(seq))
	t.waitersMu.Unlock()
}

// awaitResponse blocks on waiter until recvLoop delivers a reply or the
// per-probe timeout/context elapses first.
func (t *Tracer) awaitResponse(ctx context.Context, waiter chan probe.ProbeResponseData) (probe.ProbeResponseData, bool) {
	timer := time.NewTimer(t.config.Timeout)
	defer timer.Stop()

	select {
	case data := <-waiter:
		return data, true
	case <-timer.C:
		return probe.ProbeResponseData{}, false
	case <-ctx.Done():
		return probe.ProbeResponseData{}, false
	}
}

func probeProtocol(method ProbeMethod) probe.TracerProtocol {
	if method == ProbeUDP {
		return probe.ProtocolUDP
	}
	return probe.ProtocolICMP
}

// buildResult creates a TraceResult from the collected hops.
func (t *Tracer) buildResult(target string, dest net.IP, hops []Hop) *TraceResult {
	result := &TraceResult{
		Target:      target,
		ResolvedIP:  dest,
		Timestamp:   time.Now(),
		ProbeMethod: t.config.ProbeMethod.String(),
		Hops:        hops,
		Completed:   false,
	}

	if len(hops) > 0 {
		lastHop := hops[len(hops)-1]
		if lastHop.IP != nil && lastHop.IP.Equal(dest) {
			result.Completed = true
		}
	}

	result.Summary = t.calculateSummary(hops)

	return result
}

// calculateSummary calculates aggregate statistics for the trace.
func (t *Tracer) calculateSummary(hops []Hop) Summary {
	summary := Summary{
		TotalHops: len(hops),
	}

	var totalLoss float64

	for _, hop := range hops {
		totalLoss += hop.LossPercent
	}

	if len(hops) > 0 {
		summary.PacketLossPercent = totalLoss / float64(len(hops))
	}

	for i := len(hops) - 1; i >= 0; i-- {
		if hops[i].AvgRTT > 0 {
			summary.TotalTimeMs = hops[i].AvgRTT
			break
		}
	}

	return summary
}

// calculateRTTStats calculates RTT statistics from a slice of RTT values.
// Negative values are treated as timeouts and excluded from calculations.
func calculateRTTStats(rtts []float64) (avg, min, max, jitter float64) {
	var valid []float64
	for _, rtt := range rtts {
		if rtt >= 0 {
			valid = append(valid, rtt)
		}
	}

	if len(valid) == 0 {
		return 0, 0, 0, 0
	}

	min = valid[0]
	max = valid[0]
	sum := 0.0

	for _, rtt := range valid {
		sum += rtt
		if rtt < min {
			min = rtt
		}
		if rtt > max {
			max = rtt
		}
	}

	avg = sum / float64(len(valid))
	jitter = max - min

	return
}

// calculateLossPercent calculates packet loss percentage.
// Negative RTT values indicate timeouts.
func calculateLossPercent(rtts []float64) float64 {
	if len(rtts) == 0 {
		return 0
	}

	timeouts := 0
	for _, rtt := range rtts {
		if rtt < 0 {
			timeouts++
		}
	}

	return float64(timeouts) / float64(len(rtts)) * 100
}
