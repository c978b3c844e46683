package tracer

import (
	"context"
	"sync"
	"time"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/surface"
)

// Camera state names, exposed in snapshots.
const (
	CameraIdleRotating = "idle-rotating"
	CameraSuspended    = "suspended"
)

// Camera drives the globe's idle rotation: while no trace is active it
// nudges the camera center eastward on a fixed cadence. The loop is a
// self-rescheduling goroutine guarded by a generation token — Suspend
// invalidates the running loop, Resume starts a fresh one, and a loop
// from a stale generation exits at its next wake without touching the
// camera. Camera only ever reads and moves the camera; overlay
// primitives belong to Overlay.
type Camera struct {
	surf     surface.Surface
	step     float64 // degrees of longitude per tick
	interval time.Duration
	ctx      context.Context // surface-session lifetime

	mu        sync.Mutex
	gen       uint64
	rotating  bool
	suspended bool
}

// NewCamera creates a controller; rotation starts on Start, typically
// right after surface initialization. ctx bounds every tick: once it
// is cancelled no tick runs, regardless of state.
func NewCamera(ctx context.Context, surf surface.Surface, step float64, interval time.Duration) *Camera {
	return &Camera{surf: surf, step: step, interval: interval, ctx: ctx}
}

// Start begins idle rotation. Starting an already-rotating camera is a
// no-op.
func (c *Camera) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rotating {
		return
	}
	c.suspended = false
	c.rotating = true
	c.gen++
	go c.loop(c.gen)
}

// Suspend halts rotation; the in-flight tick's loop drops out at its
// next wake. Called when a trace enters in-progress.
func (c *Camera) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = true
	c.rotating = false
	c.gen++ // invalidates the running loop
}

// Resume restarts rotation after a trace has finished and its
// bounds-fit has been issued, so the rotation never fights the fit
// animation.
func (c *Camera) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rotating {
		return
	}
	c.suspended = false
	c.rotating = true
	c.gen++
	go c.loop(c.gen)
}

// State reports the controller state for snapshots.
func (c *Camera) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rotating {
		return CameraIdleRotating
	}
	return CameraSuspended
}

// loop is one rotation generation. It sleeps, re-validates its token,
// then advances the camera by one step.
func (c *Camera) loop(gen uint64) {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.mu.Lock()
			if c.gen == gen {
				c.rotating = false
			}
			c.mu.Unlock()
			return
		case <-timer.C:
		}

		c.mu.Lock()
		stale := c.gen != gen || c.suspended
		c.mu.Unlock()
		if stale {
			return
		}

		center := c.surf.GetCenter()
		center.Lon += c.step
		if center.Lon > 180 {
			center.Lon -= 360
		} else if center.Lon < -180 {
			center.Lon += 360
		}
		c.surf.EaseCamera(center, c.interval)

		timer.Reset(c.interval)
	}
}
