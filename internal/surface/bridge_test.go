package surface

import (
	"encoding/json"
	"testing"
	"time"
)

func drain(ch <-chan []byte) []Command {
	var cmds []Command
	for {
		select {
		case frame, ok := <-ch:
			if !ok {
				return cmds
			}
			var cmd Command
			if err := json.Unmarshal(frame, &cmd); err == nil {
				cmds = append(cmds, cmd)
			}
		default:
			return cmds
		}
	}
}

func TestBridgeRequiresCredential(t *testing.T) {
	b := NewBridge()
	if b.Ready() {
		t.Error("bridge ready before Initialize")
	}
	if err := b.Initialize(""); err != ErrNoCredential {
		t.Errorf("Initialize(\"\") = %v, want ErrNoCredential", err)
	}
	if b.Ready() {
		t.Error("bridge ready after empty credential")
	}

	// Overlay ops on a not-ready bridge must not reach clients.
	ch, _, detach := b.Register()
	defer detach()
	b.AddMarker(Coordinate{}, MarkerStyle{}, "")
	b.AddLineLayer("l", nil, LineStyle{})
	if got := drain(ch); len(got) != 0 {
		t.Errorf("inert bridge broadcast %d command(s)", len(got))
	}
}

func TestBridgeBroadcastAndReplay(t *testing.T) {
	b := NewBridge()
	if err := b.Initialize("tok-123"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	coords := []Coordinate{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}}
	b.AddLineLayer("trace-path", coords, LineStyle{Color: "#fff", Width: 2})
	b.AddMarker(coords[0], MarkerStyle{Color: "#0f0", Scale: 1.1}, "<div>hop</div>")
	b.AddMarker(coords[1], MarkerStyle{Color: "#f00", Scale: 1.1}, "<div>hop</div>")

	// A late joiner gets init + line + markers via replay.
	ch, replay, detach := b.Register()
	defer detach()

	var replayed []Command
	for _, frame := range replay {
		var cmd Command
		if err := json.Unmarshal(frame, &cmd); err != nil {
			t.Fatalf("bad replay frame: %v", err)
		}
		replayed = append(replayed, cmd)
	}
	wantOps := []string{"init", "addLineLayer", "addMarker", "addMarker"}
	if len(replayed) != len(wantOps) {
		t.Fatalf("replay has %d commands, want %d", len(replayed), len(wantOps))
	}
	for i, op := range wantOps {
		if replayed[i].Op != op {
			t.Errorf("replay[%d].Op = %s, want %s", i, replayed[i].Op, op)
		}
	}
	if replayed[0].Token != "tok-123" {
		t.Errorf("replay init token = %q, want tok-123", replayed[0].Token)
	}
	if len(replayed[1].Coords) != 2 {
		t.Errorf("replayed line has %d vertices, want 2", len(replayed[1].Coords))
	}

	// Live broadcast reaches the registered client.
	b.FitBounds(Bounds{SW: coords[0], NE: coords[1]}, 100)
	live := drain(ch)
	if len(live) != 1 || live[0].Op != "fitBounds" {
		t.Fatalf("live commands = %+v, want one fitBounds", live)
	}
	if live[0].Padding != 100 {
		t.Errorf("fitBounds padding = %d, want 100", live[0].Padding)
	}
}

func TestBridgeRemoveAbsentLineIsNoOp(t *testing.T) {
	b := NewBridge()
	if err := b.Initialize("tok"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	ch, _, detach := b.Register()
	defer detach()

	b.RemoveLineLayer("never-added")
	b.RemoveAllMarkers()
	if got := drain(ch); len(got) != 0 {
		t.Errorf("removing absent primitives broadcast %d command(s)", len(got))
	}
}

func TestBridgeFitBoundsMovesCenter(t *testing.T) {
	b := NewBridge()
	if err := b.Initialize("tok"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	b.FitBounds(Bounds{SW: Coordinate{Lon: -10, Lat: 0}, NE: Coordinate{Lon: 10, Lat: 20}}, 50)
	center := b.GetCenter()
	if center.Lon != 0 || center.Lat != 10 {
		t.Errorf("center after fit = %v, want (0, 10)", center)
	}
}

func TestBridgeDisposeClosesClients(t *testing.T) {
	b := NewBridge()
	if err := b.Initialize("tok"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	ch, _, detach := b.Register()
	defer detach()

	b.Dispose()
	if b.Ready() {
		t.Error("bridge ready after Dispose")
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after Dispose")
		}
	case <-time.After(time.Second):
		t.Error("client channel not closed after Dispose")
	}

	// Post-dispose operations are swallowed.
	b.EaseCamera(Coordinate{Lon: 1}, time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("ClientCount after Dispose = %d, want 0", b.ClientCount())
	}
}
