package hopsource

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
)

// Mock is the simulated hop source. Known targets come from the path
// catalog (built-in entries plus anything loaded from a catalog file);
// unknown targets get a deterministic synthesized path: same target,
// same hops, every time. An optional artificial delay stands in for
// probe latency so timeout behavior is exercisable.
type Mock struct {
	mu      sync.RWMutex
	origin  hop.Hop
	catalog map[string][]hop.Hop

	// Delay is waited (context-aware) before every fetch.
	Delay time.Duration
}

// defaultOrigin is the local vantage point every path starts from.
var defaultOrigin = hop.Hop{
	IP:       "192.168.1.1",
	Hostname: "local-gateway",
	Lat:      37.7749,
	Lon:      -122.4194,
	City:     "San Francisco",
	Country:  "United States",
}

// relayPool is the fixed set of intermediate waypoints synthesized
// paths route through. Real backbone cities, invented addresses.
var relayPool = []hop.Hop{
	{IP: "198.51.100.7", Hostname: "core1.den.transit.net", Lat: 39.7392, Lon: -104.9903, City: "Denver", Country: "United States"},
	{IP: "198.51.100.23", Hostname: "core2.chi.transit.net", Lat: 41.8781, Lon: -87.6298, City: "Chicago", Country: "United States"},
	{IP: "203.0.113.41", Hostname: "edge1.nyc.transit.net", Lat: 40.7128, Lon: -74.0060, City: "New York", Country: "United States"},
	{IP: "203.0.113.88", Hostname: "gw1.lhr.transit.net", Lat: 51.5074, Lon: -0.1278, City: "London", Country: "United Kingdom"},
	{IP: "198.51.100.115", Hostname: "gw2.fra.transit.net", Lat: 50.1109, Lon: 8.6821, City: "Frankfurt", Country: "Germany"},
	{IP: "203.0.113.150", Hostname: "edge3.sin.transit.net", Lat: 1.3521, Lon: 103.8198, City: "Singapore", Country: "Singapore"},
	{IP: "198.51.100.201", Hostname: "edge4.nrt.transit.net", Lat: 35.6762, Lon: 139.6503, City: "Tokyo", Country: "Japan"},
	{IP: "203.0.113.219", Hostname: "gw3.gru.transit.net", Lat: -23.5505, Lon: -46.6333, City: "São Paulo", Country: "Brazil"},
}

// builtinPaths are the demo targets the UI suggests. The 4-hop
// example.com path doubles as the canonical end-to-end fixture.
var builtinPaths = map[string][]hop.Hop{
	"example.com": {
		{IP: "192.168.1.1", Hostname: "local-gateway", Lat: 37.7749, Lon: -122.4194, LatencyMs: 1.2, City: "San Francisco", Country: "United States"},
		{IP: "198.51.100.7", Hostname: "core1.den.transit.net", Lat: 39.7392, Lon: -104.9903, LatencyMs: 24.8, City: "Denver", Country: "United States"},
		{IP: "203.0.113.41", Hostname: "edge1.nyc.transit.net", Lat: 40.7128, Lon: -74.0060, LatencyMs: 71.3, City: "New York", Country: "United States"},
		{IP: "93.184.216.34", Hostname: "example.com", Lat: 42.3601, Lon: -71.0589, LatencyMs: 88.9, City: "Boston", Country: "United States"},
	},
	"tokyo.example.net": {
		{IP: "192.168.1.1", Hostname: "local-gateway", Lat: 37.7749, Lon: -122.4194, LatencyMs: 0.9, City: "San Francisco", Country: "United States"},
		{IP: "198.51.100.201", Hostname: "edge4.nrt.transit.net", Lat: 35.6762, Lon: 139.6503, LatencyMs: 102.4, City: "Tokyo", Country: "Japan"},
		{IP: "203.0.113.77", Hostname: "tokyo.example.net", Lat: 35.6895, Lon: 139.6917, LatencyMs: 118.6, City: "Tokyo", Country: "Japan"},
	},
}

// NewMock creates a mock source seeded with the built-in catalog.
func NewMock() *Mock {
	m := &Mock{
		origin:  defaultOrigin,
		catalog: make(map[string][]hop.Hop),
	}
	for target, hops := range builtinPaths {
		m.catalog[target] = hops
	}
	return m
}

// FetchHops returns the path for target, from the catalog when known,
// synthesized otherwise. Sequence numbers are assigned here so catalog
// entries never need to carry them.
func (m *Mock) FetchHops(ctx context.Context, target string) ([]hop.Hop, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return nil, ErrEmptyTarget
	}

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.RLock()
	path, ok := m.catalog[target]
	origin := m.origin
	m.mu.RUnlock()

	var hops []hop.Hop
	if ok {
		hops = append([]hop.Hop(nil), path...)
	} else {
		hops = synthesize(origin, target)
	}
	for i := range hops {
		hops[i].Seq = i + 1
	}
	if err := hop.ValidatePath(hops); err != nil {
		return nil, fmt.Errorf("hopsource: bad path for %q: %w", target, err)
	}
	return hops, nil
}

// SetPath installs or replaces a catalog entry. Used by the catalog
// loader; also handy in tests.
func (m *Mock) SetPath(target string, hops []hop.Hop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[strings.ToLower(strings.TrimSpace(target))] = append([]hop.Hop(nil), hops...)
}

// Targets returns the catalog targets in no particular order.
func (m *Mock) Targets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	targets := make([]string, 0, len(m.catalog))
	for t := range m.catalog {
		targets = append(targets, t)
	}
	return targets
}

// synthesize builds a deterministic path for an uncataloged target:
// origin, two or three relays picked by target hash, then a
// destination whose pseudo-location is derived from the same hash.
func synthesize(origin hop.Hop, target string) []hop.Hop {
	h := fnv.New64a()
	h.Write([]byte(target))
	seed := h.Sum64()

	relayCount := 2 + int(seed%2)
	hops := make([]hop.Hop, 0, relayCount+2)

	origin.LatencyMs = 0.8 + float64(seed%30)/10 // sub-4ms LAN hop
	hops = append(hops, origin)

	idx := int(seed % uint64(len(relayPool)))
	latency := origin.LatencyMs
	for i := 0; i < relayCount; i++ {
		relay := relayPool[(idx+i*3)%len(relayPool)]
		latency += 12 + float64((seed>>(8*uint(i)))%40)
		relay.LatencyMs = latency
		hops = append(hops, relay)
	}

	dest := hop.Hop{
		IP:       fmt.Sprintf("203.0.113.%d", 1+seed%254),
		Hostname: target,
		Lat:      float64(int64(seed%130)) - 60, // [-60, 69]
		Lon:      float64(int64((seed>>7)%360)) - 180,
		City:     "Unknown",
		Country:  "Unknown",
	}
	dest.LatencyMs = latency + 8 + float64((seed>>24)%25)
	hops = append(hops, dest)
	return hops
}
