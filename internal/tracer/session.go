// Package tracer is the orchestration core: it owns trace sessions,
// paces the reveal of hops into shared state, keeps the map overlay in
// sync with completed traces, and drives the idle-rotation camera.
// Everything outside this package is either a data source, a surface,
// or a presentation shell.
package tracer

import (
	"time"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
)

// Status is the lifecycle state of a trace session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
)

// Session is one execution of "trace to target X". At most one session
// is in-progress at a time; a new session supersedes the previous one
// and its generation tag invalidates all of its pending callbacks.
type Session struct {
	ID         string
	Target     string
	Status     Status
	Hops       []hop.Hop // append-only while in-progress, frozen at complete
	Generation uint64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot is the read-only view of engine state published to the
// presentation shell. Hops is a copy; mutating it has no effect.
type Snapshot struct {
	SessionID    string    `json:"session_id,omitempty"`
	Target       string    `json:"target,omitempty"`
	Status       Status    `json:"status"`
	Hops         []hop.Hop `json:"hops"`
	Generation   uint64    `json:"generation"`
	SurfaceReady bool      `json:"surface_ready"`
	CameraState  string    `json:"camera_state"`
}

// EventKind identifies a user-facing notification.
type EventKind string

const (
	EventTraceStarted    EventKind = "trace_started"
	EventTraceComplete   EventKind = "trace_complete"
	EventTraceFailed     EventKind = "trace_failed"
	EventSurfaceNotReady EventKind = "surface_not_ready"
)

// Event is a discrete notification for the shell's toast layer. Events
// are pushed, never polled.
type Event struct {
	Kind      EventKind `json:"kind"`
	Target    string    `json:"target,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}
