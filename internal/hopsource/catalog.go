package hopsource

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
)

// catalogFile is the on-disk YAML shape:
//
//	paths:
//	  example.org:
//	    - hostname: local-gateway
//	      ip: 192.168.1.1
//	      lat: 37.77
//	      lon: -122.42
//	      latency_ms: 1.1
//	      city: San Francisco
//	      country: United States
//	    - ...
//
// Hops are listed origin-first; sequence numbers are implied by order.
type catalogFile struct {
	Paths map[string][]catalogHop `yaml:"paths"`
}

type catalogHop struct {
	Hostname  string  `yaml:"hostname"`
	IP        string  `yaml:"ip"`
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
	LatencyMs float64 `yaml:"latency_ms"`
	City      string  `yaml:"city"`
	Country   string  `yaml:"country"`
}

// LoadCatalog reads a YAML path catalog and installs every entry into
// the mock. Entries with invalid coordinates or latencies are rejected
// file-wide so a half-applied catalog never shadows the built-ins.
func LoadCatalog(path string, m *Mock) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("hopsource: read catalog %s: %w", path, err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return 0, fmt.Errorf("hopsource: parse catalog %s: %w", path, err)
	}

	parsed := make(map[string][]hop.Hop, len(cf.Paths))
	for target, entries := range cf.Paths {
		hops := make([]hop.Hop, len(entries))
		for i, e := range entries {
			hops[i] = hop.Hop{
				Seq:       i + 1,
				IP:        e.IP,
				Hostname:  e.Hostname,
				Lat:       e.Lat,
				Lon:       e.Lon,
				LatencyMs: e.LatencyMs,
				City:      e.City,
				Country:   e.Country,
			}
		}
		if err := hop.ValidatePath(hops); err != nil {
			return 0, fmt.Errorf("hopsource: catalog %s, target %q: %w", path, target, err)
		}
		parsed[target] = hops
	}

	for target, hops := range parsed {
		m.SetPath(target, hops)
	}
	return len(parsed), nil
}

// WatchCatalog loads the catalog and reloads it whenever the file
// changes, until ctx is cancelled. Editors often replace files via
// rename, so the watch is on the parent directory with events filtered
// to the catalog path. Reload failures are logged and the previous
// catalog stays in effect.
func WatchCatalog(ctx context.Context, path string, m *Mock) error {
	if n, err := LoadCatalog(path, m); err != nil {
		return err
	} else {
		log.Printf("📂 Loaded %d path(s) from catalog %s", n, path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("hopsource: create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("hopsource: watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		// Debounce: editors fire several events per save.
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(250 * time.Millisecond)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ catalog watcher error: %v", err)
			case <-pending:
				pending = nil
				if n, err := LoadCatalog(path, m); err != nil {
					log.Printf("⚠️ catalog reload failed, keeping previous paths: %v", err)
				} else {
					log.Printf("🔄 Reloaded %d path(s) from catalog %s", n, path)
				}
			}
		}
	}()

	return nil
}
