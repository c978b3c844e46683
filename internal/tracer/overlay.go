package tracer

import (
	"fmt"
	"html"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/surface"
)

// PathLayerID is the fixed identifier of the single path line layer.
const PathLayerID = "trace-path"

// pathLineStyle is the style of the hop-to-hop path line.
var pathLineStyle = surface.LineStyle{Color: "#38bdf8", Width: 2.5, Opacity: 0.85}

// Marker colors by role and latency readout colors by band.
var (
	roleColors = map[hop.Role]string{
		hop.RoleOrigin:      "#22c55e",
		hop.RoleRelay:       "#f59e0b",
		hop.RoleDestination: "#ef4444",
	}
	bandColors = map[hop.Band]string{
		hop.BandGood:    "#22c55e",
		hop.BandWarning: "#f59e0b",
		hop.BandError:   "#ef4444",
	}
)

// Overlay is the path overlay synchronizer. It is the only writer of
// overlay primitives on the surface; the engine serializes calls, so
// Overlay itself carries no lock.
type Overlay struct {
	surf       surface.Surface
	fitPadding int
}

// NewOverlay creates a synchronizer drawing onto surf, fitting the
// camera with paddingPx around completed paths.
func NewOverlay(surf surface.Surface, paddingPx int) *Overlay {
	return &Overlay{surf: surf, fitPadding: paddingPx}
}

// Clear removes the path line and every hop marker. Clearing an
// already-empty overlay is a no-op.
func (o *Overlay) Clear() {
	o.surf.RemoveLineLayer(PathLayerID)
	o.surf.RemoveAllMarkers()
}

// Redraw rebuilds the overlay from a settled hop list: full clear,
// then line, markers, and a one-shot bounds-fit. Redrawing the same
// list twice yields the same primitives — never duplicates. An empty
// list clears any residual overlay and draws nothing; with no
// coordinates there are no bounds to fit, so the camera is left alone.
func (o *Overlay) Redraw(hops []hop.Hop) {
	o.Clear()
	if len(hops) == 0 {
		return
	}

	coords := make([]surface.Coordinate, len(hops))
	for i, h := range hops {
		coords[i] = surface.Coordinate{Lon: h.Lon, Lat: h.Lat}
	}

	o.surf.AddLineLayer(PathLayerID, coords, pathLineStyle)

	for i, h := range hops {
		role := hop.RoleAt(i, len(hops))
		o.surf.AddMarker(coords[i], markerStyle(role), popupHTML(h, role))
	}

	// A single hop degenerates to a point box; the surface fits it
	// like any other.
	if b, ok := surface.BoundsOf(coords); ok {
		o.surf.FitBounds(b, o.fitPadding)
	}
}

func markerStyle(role hop.Role) surface.MarkerStyle {
	scale := 0.9
	if role != hop.RoleRelay {
		scale = 1.1
	}
	return surface.MarkerStyle{Color: roleColors[role], Scale: scale}
}

// popupHTML renders the marker popup: sequence, hostname, IP,
// city/country, and latency colored by band. Hop fields come from the
// data source, so everything user-visible is escaped.
func popupHTML(h hop.Hop, role hop.Role) string {
	band := hop.LatencyBand(h.LatencyMs)
	return fmt.Sprintf(
		`<div class="hop-popup hop-%s"><strong>Hop %d · %s</strong><br>`+
			`IP: %s<br>%s, %s<br>`+
			`Latency: <span class="latency-%s" style="color:%s">%.1f ms</span></div>`,
		role, h.Seq, html.EscapeString(h.Hostname),
		html.EscapeString(h.IP), html.EscapeString(h.City), html.EscapeString(h.Country),
		band, bandColors[band], h.LatencyMs,
	)
}
