// Package hop defines the network-path waypoint model shared by the hop
// sources, the trace engine, and the overlay synchronizer.
package hop

import "fmt"

// Hop is a single waypoint in a traced network path. Hops are immutable
// once produced by a source; the engine only ever appends them to a
// session's hop list.
type Hop struct {
	Seq       int     `json:"seq"` // 1-based, contiguous within a trace
	IP        string  `json:"ip"`
	Hostname  string  `json:"hostname"`
	Lat       float64 `json:"lat"` // degrees, ±90
	Lon       float64 `json:"lon"` // degrees, ±180
	LatencyMs float64 `json:"latency_ms"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
}

// Role classifies a hop's position within a path for marker styling.
type Role string

const (
	RoleOrigin      Role = "origin"
	RoleRelay       Role = "relay"
	RoleDestination Role = "destination"
)

// RoleAt returns the marker role for position i in a path of n hops.
// For a single-hop path the origin role wins: the lone hop is the
// local origin, even though it is also the path's endpoint.
func RoleAt(i, n int) Role {
	switch {
	case i == 0:
		return RoleOrigin
	case i == n-1:
		return RoleDestination
	default:
		return RoleRelay
	}
}

// Band is a latency severity band used to color latency readouts.
type Band string

const (
	BandGood    Band = "good"    // [0, 20) ms
	BandWarning Band = "warning" // [20, 100) ms
	BandError   Band = "error"   // [100, ∞) ms
)

// LatencyBand maps a latency in milliseconds onto its severity band.
// Bands are half-open: exactly 20ms is warning, exactly 100ms is error.
func LatencyBand(ms float64) Band {
	switch {
	case ms < 20:
		return BandGood
	case ms < 100:
		return BandWarning
	default:
		return BandError
	}
}

// Label is a short display string for the hop, used in logs and the
// history feed.
func (h Hop) Label() string {
	if h.City != "" && h.Country != "" {
		return fmt.Sprintf("%d. %s (%s) %s, %s", h.Seq, h.Hostname, h.IP, h.City, h.Country)
	}
	return fmt.Sprintf("%d. %s (%s)", h.Seq, h.Hostname, h.IP)
}

// Validate checks the coordinate ranges and latency sign. Sources are
// expected to hand the engine valid hops; this is the guard at the
// boundary.
func (h Hop) Validate() error {
	if h.Seq < 1 {
		return fmt.Errorf("hop seq must be >= 1, got %d", h.Seq)
	}
	if h.Lat < -90 || h.Lat > 90 {
		return fmt.Errorf("hop %d: latitude %v out of range", h.Seq, h.Lat)
	}
	if h.Lon < -180 || h.Lon > 180 {
		return fmt.Errorf("hop %d: longitude %v out of range", h.Seq, h.Lon)
	}
	if h.LatencyMs < 0 {
		return fmt.Errorf("hop %d: negative latency %v", h.Seq, h.LatencyMs)
	}
	return nil
}

// ValidatePath checks every hop and the contiguity of sequence numbers
// (1..n in order).
func ValidatePath(hops []Hop) error {
	for i, h := range hops {
		if err := h.Validate(); err != nil {
			return err
		}
		if h.Seq != i+1 {
			return fmt.Errorf("hop at index %d has seq %d, want %d", i, h.Seq, i+1)
		}
	}
	return nil
}
