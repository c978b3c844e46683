// Package webui serves the browser shell and its live data: the
// embedded globe page, a small JSON API, and a WebSocket that streams
// overlay commands, state snapshots, and notifications. The shell
// holds no orchestration logic; it renders what this server pushes.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/surface"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/tracer"
)

//go:embed static/index.html
var staticFiles embed.FS

// keepaliveInterval is how often an idle WebSocket gets a state frame
// so the shell knows the server is alive.
const keepaliveInterval = 15 * time.Second

// Server wires the engine and the surface bridge to HTTP.
type Server struct {
	engine  *tracer.Engine
	bridge  *surface.Bridge
	targets func() []string // catalog suggestions for the shell
}

// New creates a web UI server. targets may be nil.
func New(engine *tracer.Engine, bridge *surface.Bridge, targets func() []string) *Server {
	return &Server{engine: engine, bridge: bridge, targets: targets}
}

// RegisterRoutes attaches all routes to an existing ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleShell)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/trace", s.handleTrace)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/targets", s.handleTargets)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleShell serves the embedded globe page.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "shell not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// handleStatus returns the current engine snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Snapshot())
}

// traceRequest is the POST /api/trace body.
type traceRequest struct {
	Target string `json:"target"`
}

// handleTrace starts a trace. The request is accepted as soon as the
// engine takes it; progress flows over the WebSocket.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	var req traceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.engine.StartTrace(req.Target); err != nil {
		status := http.StatusBadRequest
		if err == tracer.ErrSurfaceNotReady {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, s.engine.Snapshot())
}

// handleHistory returns recent session summaries, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries := s.engine.History(limit)
	if entries == nil {
		entries = []tracer.HistoryEntry{}
	}
	writeJSON(w, entries)
}

// handleTargets returns the catalog targets for the shell's input
// suggestions.
func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	var targets []string
	if s.targets != nil {
		targets = s.targets()
	}
	sort.Strings(targets)
	if targets == nil {
		targets = []string{}
	}
	writeJSON(w, targets)
}

// wsEnvelope wraps non-command frames pushed to the shell. Overlay
// commands from the bridge go out as-is; state and notice frames use
// this envelope, distinguished by op.
type wsEnvelope struct {
	Op    string           `json:"op"`
	State *tracer.Snapshot `json:"state,omitempty"`
	Event *tracer.Event    `json:"event,omitempty"`
}

// wsRequest is the client-to-server message shape.
type wsRequest struct {
	Op     string `json:"op"` // "trace"
	Target string `json:"target"`
}

// handleWebSocket upgrades the connection and bridges three streams
// onto one socket: overlay command frames, coalesced state snapshots,
// and notification events. Inbound messages may request traces.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // localhost tool; any origin may connect
	})
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	frames, replay, detach := s.bridge.Register()
	defer detach()

	stateCh, unsubState := s.engine.Subscribe()
	defer unsubState()
	eventCh, unsubEvents := s.engine.SubscribeEvents()
	defer unsubEvents()

	// Inbound trace requests.
	go func() {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var req wsRequest
			if json.Unmarshal(data, &req) != nil || req.Op != "trace" {
				continue
			}
			// Errors surface as engine events; nothing to do here.
			_ = s.engine.StartTrace(req.Target)
		}
	}()

	// Bring the late joiner up to date: current overlay, then state.
	for _, frame := range replay {
		if !writeFrame(ctx, conn, frame) {
			return
		}
	}
	if !s.sendState(ctx, conn) {
		return
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return

		case frame, ok := <-frames:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "surface disposed")
				return
			}
			if !writeFrame(ctx, conn, frame) {
				return
			}

		case _, ok := <-stateCh:
			if !ok {
				return
			}
			if !s.sendState(ctx, conn) {
				return
			}

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			frame, err := json.Marshal(wsEnvelope{Op: "notice", Event: &ev})
			if err != nil {
				continue
			}
			if !writeFrame(ctx, conn, frame) {
				return
			}

		case <-keepalive.C:
			if !s.sendState(ctx, conn) {
				return
			}
		}
	}
}

// sendState pushes the current snapshot; false means the socket is
// gone.
func (s *Server) sendState(ctx context.Context, conn *websocket.Conn) bool {
	snap := s.engine.Snapshot()
	frame, err := json.Marshal(wsEnvelope{Op: "state", State: &snap})
	if err != nil {
		log.Printf("webui: failed to marshal state: %v", err)
		return true
	}
	return writeFrame(ctx, conn, frame)
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, frame) == nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("webui: failed to write JSON: %v", err)
	}
}
