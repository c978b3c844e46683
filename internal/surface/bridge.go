package surface

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Command is one overlay or camera operation encoded for the browser
// shell. The shell applies commands in order against the map engine.
type Command struct {
	Op        string       `json:"op"`
	ID        string       `json:"id,omitempty"`
	Token     string       `json:"token,omitempty"`
	Center    *Coordinate  `json:"center,omitempty"`
	Duration  int64        `json:"duration_ms,omitempty"`
	Coords    []Coordinate `json:"coords,omitempty"`
	Line      *LineStyle   `json:"line,omitempty"`
	Marker    *MarkerStyle `json:"marker,omitempty"`
	PopupHTML string       `json:"popup_html,omitempty"`
	Bounds    *Bounds      `json:"bounds,omitempty"`
	Padding   int          `json:"padding,omitempty"`
}

// Command op names understood by the shell.
const (
	opInit             = "init"
	opEaseCamera       = "easeCamera"
	opAddLineLayer     = "addLineLayer"
	opRemoveLineLayer  = "removeLineLayer"
	opAddMarker        = "addMarker"
	opRemoveAllMarkers = "removeAllMarkers"
	opFitBounds        = "fitBounds"
)

// Bridge is the production Surface: it broadcasts overlay commands to
// every connected browser shell and replays the current overlay to
// late joiners, so a shell that connects mid-session converges on the
// same map state. The bridge itself holds no hop-domain knowledge.
type Bridge struct {
	mu       sync.Mutex
	token    string
	ready    bool
	disposed bool

	center Coordinate

	// Current overlay, kept for late-joiner replay. Lines are keyed
	// by layer id; markers are replayed in insertion order.
	lines   map[string]Command
	lineIDs []string
	markers []Command

	clients map[uint64]chan []byte
	nextID  uint64
}

// DefaultCenter is where the camera starts before any trace has run.
var DefaultCenter = Coordinate{Lon: 0, Lat: 20}

// clientBuffer is the per-client outbound queue depth. A shell that
// stalls past this many frames starts dropping commands; the next
// reconnect replay resyncs it.
const clientBuffer = 64

// NewBridge creates a bridge with no credential. It reports not ready
// until Initialize succeeds.
func NewBridge() *Bridge {
	return &Bridge{
		center:  DefaultCenter,
		lines:   make(map[string]Command),
		clients: make(map[uint64]chan []byte),
	}
}

// Initialize stores the map access credential and marks the bridge
// ready. An empty credential leaves the bridge inert.
func (b *Bridge) Initialize(credential string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrDisposed
	}
	if credential == "" {
		return ErrNoCredential
	}
	b.token = credential
	b.ready = true
	b.broadcastLocked(Command{Op: opInit, Token: credential, Center: &b.center})
	return nil
}

// Ready reports whether the bridge has a credential and has not been
// disposed.
func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready && !b.disposed
}

// GetCenter returns the last camera center the bridge commanded.
func (b *Bridge) GetCenter() Coordinate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.center
}

// EaseCamera moves the camera center over the given duration.
func (b *Bridge) EaseCamera(center Coordinate, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready || b.disposed {
		return
	}
	b.center = center
	b.broadcastLocked(Command{Op: opEaseCamera, Center: &center, Duration: duration.Milliseconds()})
}

// AddLineLayer draws (or redraws) the line layer with the given id.
func (b *Bridge) AddLineLayer(id string, coords []Coordinate, style LineStyle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready || b.disposed {
		return
	}
	cmd := Command{Op: opAddLineLayer, ID: id, Coords: coords, Line: &style}
	if _, exists := b.lines[id]; !exists {
		b.lineIDs = append(b.lineIDs, id)
	}
	b.lines[id] = cmd
	b.broadcastLocked(cmd)
}

// RemoveLineLayer removes the line layer with the given id. Removing
// an absent layer is a no-op.
func (b *Bridge) RemoveLineLayer(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	if _, exists := b.lines[id]; !exists {
		return
	}
	delete(b.lines, id)
	for i, lid := range b.lineIDs {
		if lid == id {
			b.lineIDs = append(b.lineIDs[:i], b.lineIDs[i+1:]...)
			break
		}
	}
	b.broadcastLocked(Command{Op: opRemoveLineLayer, ID: id})
}

// AddMarker places a marker with an attached popup.
func (b *Bridge) AddMarker(coord Coordinate, style MarkerStyle, popupHTML string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready || b.disposed {
		return
	}
	cmd := Command{Op: opAddMarker, Coords: []Coordinate{coord}, Marker: &style, PopupHTML: popupHTML}
	b.markers = append(b.markers, cmd)
	b.broadcastLocked(cmd)
}

// RemoveAllMarkers removes every marker currently placed.
func (b *Bridge) RemoveAllMarkers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	if len(b.markers) == 0 {
		return
	}
	b.markers = nil
	b.broadcastLocked(Command{Op: opRemoveAllMarkers})
}

// FitBounds eases the camera to cover the bounding box with padding.
func (b *Bridge) FitBounds(bounds Bounds, paddingPx int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready || b.disposed {
		return
	}
	// Track the box center so idle rotation resumes from where the
	// fit left the camera instead of snapping back.
	b.center = Coordinate{
		Lon: (bounds.SW.Lon + bounds.NE.Lon) / 2,
		Lat: (bounds.SW.Lat + bounds.NE.Lat) / 2,
	}
	b.broadcastLocked(Command{Op: opFitBounds, Bounds: &bounds, Padding: paddingPx})
}

// Dispose tears the bridge down and closes every client queue.
func (b *Bridge) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	b.disposed = true
	b.ready = false
	b.lines = make(map[string]Command)
	b.lineIDs = nil
	b.markers = nil
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
}

// Register attaches a shell client. It returns the client's outbound
// frame channel, the replay frames that bring the client up to the
// current overlay state, and a detach function. The channel is closed
// on Dispose.
func (b *Bridge) Register() (<-chan []byte, [][]byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, clientBuffer)
	id := b.nextID
	b.nextID++
	if !b.disposed {
		b.clients[id] = ch
	} else {
		close(ch)
	}

	replay := b.replayLocked()

	detach := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.clients, id)
	}
	return ch, replay, detach
}

// ClientCount returns the number of attached shell clients.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// replayLocked encodes the init command plus the current overlay in
// draw order. Caller holds b.mu.
func (b *Bridge) replayLocked() [][]byte {
	if !b.ready || b.disposed {
		return nil
	}
	cmds := make([]Command, 0, 1+len(b.lineIDs)+len(b.markers))
	center := b.center
	cmds = append(cmds, Command{Op: opInit, Token: b.token, Center: &center})
	for _, id := range b.lineIDs {
		cmds = append(cmds, b.lines[id])
	}
	cmds = append(cmds, b.markers...)

	frames := make([][]byte, 0, len(cmds))
	for _, cmd := range cmds {
		if frame, err := json.Marshal(cmd); err == nil {
			frames = append(frames, frame)
		}
	}
	return frames
}

// broadcastLocked encodes a command and queues it to every client,
// dropping frames for clients whose queue is full. Caller holds b.mu.
func (b *Bridge) broadcastLocked(cmd Command) {
	frame, err := json.Marshal(cmd)
	if err != nil {
		log.Printf("surface: failed to marshal %s command: %v", cmd.Op, err)
		return
	}
	for _, ch := range b.clients {
		select {
		case ch <- frame:
		default:
			// Stalled client; it resyncs via replay on reconnect.
		}
	}
}
