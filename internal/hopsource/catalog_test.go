package hopsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `
paths:
  lab.internal:
    - hostname: local-gateway
      ip: 192.168.1.1
      lat: 37.77
      lon: -122.42
      latency_ms: 1.1
      city: San Francisco
      country: United States
    - hostname: lab.internal
      ip: 10.20.0.5
      lat: 47.61
      lon: -122.33
      latency_ms: 14.9
      city: Seattle
      country: United States
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paths.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	m := NewMock()
	n, err := LoadCatalog(writeCatalog(t, sampleCatalog), m)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if n != 1 {
		t.Errorf("loaded %d paths, want 1", n)
	}

	hops, err := m.FetchHops(context.Background(), "lab.internal")
	if err != nil {
		t.Fatalf("FetchHops: %v", err)
	}
	if len(hops) != 2 {
		t.Fatalf("catalog path has %d hops, want 2", len(hops))
	}
	if hops[1].City != "Seattle" {
		t.Errorf("second hop city = %s, want Seattle", hops[1].City)
	}
	if hops[0].Seq != 1 || hops[1].Seq != 2 {
		t.Errorf("sequence numbers not assigned from order: %d, %d", hops[0].Seq, hops[1].Seq)
	}
}

func TestLoadCatalogRejectsInvalidCoordinates(t *testing.T) {
	bad := `
paths:
  broken.example:
    - hostname: nowhere
      ip: 10.0.0.1
      lat: 123.0
      lon: 0.0
      latency_ms: 5
`
	m := NewMock()
	if _, err := LoadCatalog(writeCatalog(t, bad), m); err == nil {
		t.Fatal("catalog with out-of-range latitude accepted")
	}

	// The built-in catalog must survive a rejected reload.
	hops, err := m.FetchHops(context.Background(), "example.com")
	if err != nil || len(hops) != 4 {
		t.Errorf("builtin path lost after rejected catalog: %d hops, err=%v", len(hops), err)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	m := NewMock()
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"), m); err == nil {
		t.Fatal("missing catalog file accepted")
	}
}
