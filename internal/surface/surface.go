// Package surface defines the map surface boundary: the primitive
// operations the trace engine needs from a map rendering engine, plus
// the coordinate and bounds math shared by implementations. The
// production implementation is the WebSocket Bridge, which forwards
// each operation as a JSON command to connected browser shells; tests
// substitute a recording fake.
package surface

import "time"

// Coordinate is a geographic point in (longitude, latitude) order, the
// order map engines take vertices in.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Bounds is a geographic bounding box. A degenerate box (SW == NE) is
// valid and represents a single point.
type Bounds struct {
	SW Coordinate `json:"sw"`
	NE Coordinate `json:"ne"`
}

// BoundsOf computes the bounding box covering all coordinates. The
// second return is false for an empty input: there are no valid bounds
// to fit.
func BoundsOf(coords []Coordinate) (Bounds, bool) {
	if len(coords) == 0 {
		return Bounds{}, false
	}
	b := Bounds{SW: coords[0], NE: coords[0]}
	for _, c := range coords[1:] {
		if c.Lon < b.SW.Lon {
			b.SW.Lon = c.Lon
		}
		if c.Lat < b.SW.Lat {
			b.SW.Lat = c.Lat
		}
		if c.Lon > b.NE.Lon {
			b.NE.Lon = c.Lon
		}
		if c.Lat > b.NE.Lat {
			b.NE.Lat = c.Lat
		}
	}
	return b, true
}

// LineStyle describes the path line drawn between hops.
type LineStyle struct {
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
}

// MarkerStyle describes a hop marker. Color is a CSS color; Scale is a
// relative marker size (1.0 = engine default).
type MarkerStyle struct {
	Color string  `json:"color"`
	Scale float64 `json:"scale"`
}

// Surface is the map surface adapter consumed by the trace engine. All
// overlay mutation goes through the overlay synchronizer; the camera
// controller only touches camera operations. Implementations must
// tolerate removal of absent primitives (RemoveLineLayer of an unknown
// id is a no-op, not an error).
type Surface interface {
	// Initialize hands the surface its access credential. The surface
	// is not Ready, and must reject overlay work, until this succeeds.
	Initialize(credential string) error
	Ready() bool

	GetCenter() Coordinate
	EaseCamera(center Coordinate, duration time.Duration)

	AddLineLayer(id string, coords []Coordinate, style LineStyle)
	RemoveLineLayer(id string)
	AddMarker(coord Coordinate, style MarkerStyle, popupHTML string)
	RemoveAllMarkers()
	FitBounds(b Bounds, paddingPx int)

	// Dispose tears the surface down. After Dispose no operation may
	// reach a client and Ready reports false.
	Dispose()
}
