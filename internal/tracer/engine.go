package tracer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hopsource"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/surface"
)

var (
	// ErrSurfaceNotReady means a trace was requested before the map
	// surface was initialized with a credential.
	ErrSurfaceNotReady = errors.New("tracer: map surface not ready")

	// ErrDisposed means the engine has been torn down.
	ErrDisposed = errors.New("tracer: engine disposed")
)

// Options tune the engine's pacing and camera behavior. Zero values
// take the documented defaults.
type Options struct {
	RevealInterval  time.Duration // delay between hop reveals, incl. before the first (default 1s)
	FitPaddingPx    int           // bounds-fit padding (default 100)
	RotateStepDeg   float64       // idle-rotation longitude step per tick (default 0.1)
	RotateInterval  time.Duration // idle-rotation tick cadence (default 100ms)
	HistoryCapacity int           // activity feed depth (default 25)
}

func (o Options) withDefaults() Options {
	if o.RevealInterval <= 0 {
		o.RevealInterval = time.Second
	}
	if o.FitPaddingPx <= 0 {
		o.FitPaddingPx = 100
	}
	if o.RotateStepDeg <= 0 {
		o.RotateStepDeg = 0.1
	}
	if o.RotateInterval <= 0 {
		o.RotateInterval = 100 * time.Millisecond
	}
	if o.HistoryCapacity <= 0 {
		o.HistoryCapacity = DefaultHistoryCapacity
	}
	return o
}

// Engine is the hop-sequence orchestrator. It owns the surface session
// it was constructed with, serializes all session and overlay
// mutations behind one mutex, and tags every trace with a monotonic
// generation: any scheduled callback that wakes under a newer
// generation drops itself without touching state ("last trace wins").
type Engine struct {
	surf    surface.Surface
	source  hopsource.Source
	overlay *Overlay
	camera  *Camera
	history *History
	opts    Options

	ctx    context.Context // engine lifetime, cancelled on Dispose
	cancel context.CancelFunc

	mu          sync.Mutex
	session     Session
	generation  uint64
	traceCancel context.CancelFunc
	disposed    bool

	stateSubs map[uint64]chan struct{}
	eventSubs map[uint64]chan Event
	nextSubID uint64
}

// New wires an engine to its surface and hop source. The surface is
// owned by the engine from here on; Dispose tears both down.
func New(surf surface.Surface, source hopsource.Source, opts Options) *Engine {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		surf:      surf,
		source:    source,
		overlay:   NewOverlay(surf, opts.FitPaddingPx),
		camera:    NewCamera(ctx, surf, opts.RotateStepDeg, opts.RotateInterval),
		history:   NewHistory(opts.HistoryCapacity),
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		session:   Session{Status: StatusIdle},
		stateSubs: make(map[uint64]chan struct{}),
		eventSubs: make(map[uint64]chan Event),
	}
}

// Initialize hands the surface its access credential and starts idle
// rotation. Without a successful Initialize the engine stays inert:
// every trace request fails with ErrSurfaceNotReady.
func (e *Engine) Initialize(credential string) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}
	e.mu.Unlock()

	if err := e.surf.Initialize(credential); err != nil {
		return err
	}
	e.camera.Start()
	e.notify()
	return nil
}

// StartTrace begins a trace session for target. A trace already
// in-progress is superseded: its pending reveals are cancelled and can
// never reach the overlay, so the final state always reflects the
// latest request. The hop sequence is fetched eagerly and then
// revealed one hop per pacing interval for the detail panel; the
// overlay is only redrawn from the settled, complete list.
func (e *Engine) StartTrace(target string) error {
	target = strings.TrimSpace(target)

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}
	if !e.surf.Ready() {
		e.emitLocked(Event{
			Kind:    EventSurfaceNotReady,
			Target:  target,
			Message: "map surface not ready: configure a map access token",
		})
		e.mu.Unlock()
		return ErrSurfaceNotReady
	}
	if target == "" {
		e.mu.Unlock()
		return hopsource.ErrEmptyTarget
	}

	if e.traceCancel != nil {
		e.traceCancel()
		e.traceCancel = nil
	}
	e.generation++
	gen := e.generation
	traceCtx, cancel := context.WithCancel(e.ctx)
	e.traceCancel = cancel

	e.session = Session{
		ID:         uuid.NewString(),
		Target:     target,
		Status:     StatusInProgress,
		Generation: gen,
		StartedAt:  time.Now(),
	}
	e.camera.Suspend()
	e.emitLocked(Event{
		Kind:      EventTraceStarted,
		Target:    target,
		SessionID: e.session.ID,
		Message:   fmt.Sprintf("tracing route to %s", target),
	})
	e.notifyLocked()
	e.mu.Unlock()

	go e.runTrace(traceCtx, gen, target)
	return nil
}

// runTrace is the reveal loop for one session generation. Every step
// re-validates the generation before mutating shared state.
func (e *Engine) runTrace(ctx context.Context, gen uint64, target string) {
	hops, err := e.source.FetchHops(ctx, target)
	if err != nil {
		// The previous session's overlay is still intact; a failed
		// fetch must not disturb it.
		e.failTrace(gen, target, err)
		return
	}

	// Clear the previous session's overlay before anything is drawn
	// for this one.
	e.mu.Lock()
	if e.staleLocked(gen) {
		e.mu.Unlock()
		return
	}
	e.overlay.Clear()
	e.mu.Unlock()

	for _, h := range hops {
		if !e.pace(ctx, gen) {
			return
		}
		e.mu.Lock()
		if e.staleLocked(gen) {
			e.mu.Unlock()
			return
		}
		e.session.Hops = append(e.session.Hops, h)
		e.notifyLocked()
		e.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.staleLocked(gen) {
		return
	}

	full := append([]hop.Hop(nil), e.session.Hops...)
	e.overlay.Redraw(full) // issues the one-shot bounds-fit

	e.session.Status = StatusComplete
	e.session.FinishedAt = time.Now()
	e.history.Add(HistoryEntry{
		SessionID: e.session.ID,
		Target:    target,
		Status:    StatusComplete,
		HopCount:  len(full),
		Duration:  e.session.FinishedAt.Sub(e.session.StartedAt),
		When:      e.session.FinishedAt,
	})
	e.emitLocked(Event{
		Kind:      EventTraceComplete,
		Target:    target,
		SessionID: e.session.ID,
		Message:   fmt.Sprintf("trace to %s complete: %d hop(s)", target, len(full)),
	})
	// Rotation resumes only now, after the bounds-fit went out.
	e.camera.Resume()
	e.notifyLocked()
}

// failTrace reverts a failed session to idle without touching the
// overlay. A stale generation (superseded or disposed) drops silently.
func (e *Engine) failTrace(gen uint64, target string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.staleLocked(gen) {
		return
	}

	now := time.Now()
	sessionID := e.session.ID
	e.history.Add(HistoryEntry{
		SessionID: sessionID,
		Target:    target,
		Status:    StatusIdle,
		Duration:  now.Sub(e.session.StartedAt),
		Error:     err.Error(),
		When:      now,
	})
	e.session = Session{Status: StatusIdle, Generation: gen}
	e.emitLocked(Event{
		Kind:      EventTraceFailed,
		Target:    target,
		SessionID: sessionID,
		Message:   fmt.Sprintf("trace to %s failed: %v", target, err),
	})
	e.camera.Resume()
	e.notifyLocked()
}

// pace waits one reveal interval. It returns false when the session
// was superseded or disposed while waiting, in which case the caller
// must not touch state.
func (e *Engine) pace(ctx context.Context, gen uint64) bool {
	timer := time.NewTimer(e.opts.RevealInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.staleLocked(gen)
}

// staleLocked reports whether gen no longer identifies the current
// session. Caller holds e.mu.
func (e *Engine) staleLocked(gen uint64) bool {
	return e.disposed || e.session.Generation != gen
}

// Snapshot returns a read-only copy of current engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		SessionID:    e.session.ID,
		Target:       e.session.Target,
		Status:       e.session.Status,
		Hops:         append([]hop.Hop(nil), e.session.Hops...),
		Generation:   e.session.Generation,
		SurfaceReady: e.surf.Ready(),
		CameraState:  e.camera.State(),
	}
}

// History returns up to n recent session summaries, newest first.
func (e *Engine) History(n int) []HistoryEntry {
	return e.history.Recent(n)
}

// Subscribe returns a coalesced state-change signal channel and an
// unsubscribe function. Receivers pull the latest state via Snapshot.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	ch := make(chan struct{}, 1)
	if e.disposed {
		close(ch)
	} else {
		e.stateSubs[id] = ch
	}
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.stateSubs, id)
	}
}

// SubscribeEvents returns a channel of user-facing notifications and
// an unsubscribe function. Slow receivers lose events rather than
// block the engine.
func (e *Engine) SubscribeEvents() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	ch := make(chan Event, 16)
	if e.disposed {
		close(ch)
	} else {
		e.eventSubs[id] = ch
	}
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.eventSubs, id)
	}
}

// Dispose cancels all pending reveals and camera ticks, closes every
// subscriber channel, and tears down the surface. Idempotent.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	if e.traceCancel != nil {
		e.traceCancel()
		e.traceCancel = nil
	}
	e.cancel()
	for id, ch := range e.stateSubs {
		close(ch)
		delete(e.stateSubs, id)
	}
	for id, ch := range e.eventSubs {
		close(ch)
		delete(e.eventSubs, id)
	}
	e.mu.Unlock()

	e.surf.Dispose()
}

// notify signals state-change subscribers outside the lock.
func (e *Engine) notify() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifyLocked()
}

// notifyLocked sends a non-blocking signal to every state subscriber;
// a pending signal coalesces. Caller holds e.mu.
func (e *Engine) notifyLocked() {
	for _, ch := range e.stateSubs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// emitLocked delivers a timestamped event to every event subscriber,
// dropping for full queues. Caller holds e.mu.
func (e *Engine) emitLocked(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	for _, ch := range e.eventSubs {
		select {
		case ch <- ev:
		default:
		}
	}
}
