package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/surface"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/tracer"
)

type fixedSource struct {
	hops []hop.Hop
}

func (f *fixedSource) FetchHops(ctx context.Context, target string) ([]hop.Hop, error) {
	return append([]hop.Hop(nil), f.hops...), nil
}

func newTestServer(t *testing.T, token string) (*httptest.Server, *tracer.Engine) {
	t.Helper()
	bridge := surface.NewBridge()
	src := &fixedSource{hops: []hop.Hop{
		{Seq: 1, IP: "192.168.1.1", Hostname: "gw", Lat: 37.7, Lon: -122.4, LatencyMs: 1.0},
		{Seq: 2, IP: "203.0.113.9", Hostname: "target", Lat: 40.7, Lon: -74.0, LatencyMs: 42.0},
	}}
	engine := tracer.New(bridge, src, tracer.Options{
		RevealInterval: 2 * time.Millisecond,
		RotateInterval: 500 * time.Millisecond,
	})
	t.Cleanup(engine.Dispose)

	if token != "" {
		if err := engine.Initialize(token); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
	}

	mux := http.NewServeMux()
	New(engine, bridge, func() []string { return []string{"target.example"} }).RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, engine
}

func TestShellPageServed(t *testing.T) {
	ts, _ := newTestServer(t, "tok")
	res, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "Geo Tracer") {
		t.Error("shell page missing title")
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, "")
	res, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer res.Body.Close()

	var snap tracer.Snapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != tracer.StatusIdle {
		t.Errorf("status = %s, want idle", snap.Status)
	}
	if snap.SurfaceReady {
		t.Error("surface reported ready without a token")
	}
}

func TestTraceRejectedWithoutToken(t *testing.T) {
	ts, _ := newTestServer(t, "")
	res, err := http.Post(ts.URL+"/api/trace", "application/json",
		bytes.NewBufferString(`{"target":"target.example"}`))
	if err != nil {
		t.Fatalf("POST /api/trace: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("POST /api/trace = %d, want 503", res.StatusCode)
	}
}

func TestTraceAcceptedAndCompletes(t *testing.T) {
	ts, engine := newTestServer(t, "tok")
	res, err := http.Post(ts.URL+"/api/trace", "application/json",
		bytes.NewBufferString(`{"target":"target.example"}`))
	if err != nil {
		t.Fatalf("POST /api/trace: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("POST /api/trace = %d, want 202", res.StatusCode)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if snap := engine.Snapshot(); snap.Status == tracer.StatusComplete {
			if len(snap.Hops) != 2 {
				t.Errorf("completed with %d hops, want 2", len(snap.Hops))
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("trace never completed")
}

func TestTraceBadBody(t *testing.T) {
	ts, _ := newTestServer(t, "tok")
	res, err := http.Post(ts.URL+"/api/trace", "application/json",
		bytes.NewBufferString(`{not json`))
	if err != nil {
		t.Fatalf("POST /api/trace: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", res.StatusCode)
	}
}

func TestTargetsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, "tok")
	res, err := http.Get(ts.URL + "/api/targets")
	if err != nil {
		t.Fatalf("GET /api/targets: %v", err)
	}
	defer res.Body.Close()

	var targets []string
	if err := json.NewDecoder(res.Body).Decode(&targets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(targets) != 1 || targets[0] != "target.example" {
		t.Errorf("targets = %v, want [target.example]", targets)
	}
}

func TestHistoryEndpointEmpty(t *testing.T) {
	ts, _ := newTestServer(t, "tok")
	res, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatalf("GET /api/history: %v", err)
	}
	defer res.Body.Close()

	var entries []tracer.HistoryEntry
	if err := json.NewDecoder(res.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history = %v, want empty", entries)
	}
}
