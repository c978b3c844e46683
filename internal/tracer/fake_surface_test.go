package tracer

import (
	"sync"
	"time"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/surface"
)

// fakeSurface records every operation so tests can assert on the exact
// primitive set and call ordering.
type fakeSurface struct {
	mu       sync.Mutex
	ready    bool
	disposed bool
	center   surface.Coordinate

	lines   map[string][]surface.Coordinate
	markers []fakeMarker
	fits    []surface.Bounds
	eases   int
	ops     []string
}

type fakeMarker struct {
	coord surface.Coordinate
	style surface.MarkerStyle
	popup string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{lines: make(map[string][]surface.Coordinate)}
}

func (f *fakeSurface) Initialize(credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if credential == "" {
		return surface.ErrNoCredential
	}
	f.ready = true
	return nil
}

func (f *fakeSurface) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready && !f.disposed
}

func (f *fakeSurface) GetCenter() surface.Coordinate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.center
}

func (f *fakeSurface) EaseCamera(center surface.Coordinate, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.center = center
	f.eases++
	f.ops = append(f.ops, "easeCamera")
}

func (f *fakeSurface) AddLineLayer(id string, coords []surface.Coordinate, _ surface.LineStyle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[id] = append([]surface.Coordinate(nil), coords...)
	f.ops = append(f.ops, "addLineLayer")
}

func (f *fakeSurface) RemoveLineLayer(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, id)
	f.ops = append(f.ops, "removeLineLayer")
}

func (f *fakeSurface) AddMarker(coord surface.Coordinate, style surface.MarkerStyle, popupHTML string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers = append(f.markers, fakeMarker{coord: coord, style: style, popup: popupHTML})
	f.ops = append(f.ops, "addMarker")
}

func (f *fakeSurface) RemoveAllMarkers() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers = nil
	f.ops = append(f.ops, "removeAllMarkers")
}

func (f *fakeSurface) FitBounds(b surface.Bounds, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fits = append(f.fits, b)
	f.ops = append(f.ops, "fitBounds")
}

func (f *fakeSurface) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
	f.ready = false
}

func (f *fakeSurface) snapshot() (lines map[string][]surface.Coordinate, markers []fakeMarker, fits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines = make(map[string][]surface.Coordinate, len(f.lines))
	for id, coords := range f.lines {
		lines[id] = append([]surface.Coordinate(nil), coords...)
	}
	markers = append([]fakeMarker(nil), f.markers...)
	return lines, markers, len(f.fits)
}

func (f *fakeSurface) easeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eases
}

func (f *fakeSurface) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}
