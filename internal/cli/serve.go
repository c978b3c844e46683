package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/banner"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hopsource"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/surface"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/tracer"
	"github.com/S-Harshitha006/geo-tracer-mapper/internal/webui"
)

// Version is stamped by the main package.
var Version = "dev"

// ServeCommand returns the CLI command definition for the 'serve'
// subcommand: the web shell, the trace engine, and the mock hop source
// behind one HTTP server.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the globe visualizer web server",
		Description: `Starts the geo tracer web server: a browser shell on an interactive
3-D globe, driven by the in-process trace engine over WebSocket. Hop
data comes from the simulated source; point --catalog at a YAML file
to add or override target paths (the file is hot-reloaded).`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a JSON config file",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "HTTP bind address",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP port",
			},
			&cli.StringFlag{
				Name:    "map-token",
				Usage:   "Map access token (required for the surface to activate)",
				Sources: cli.EnvVars("GEO_TRACER_MAP_TOKEN"),
			},
			&cli.IntFlag{
				Name:  "reveal-interval-ms",
				Usage: "Delay between hop reveals",
			},
			&cli.IntFlag{
				Name:  "fit-padding",
				Usage: "Bounds-fit padding in pixels",
			},
			&cli.FloatFlag{
				Name:  "rotate-step",
				Usage: "Idle rotation step in degrees per tick",
			},
			&cli.IntFlag{
				Name:  "rotate-interval-ms",
				Usage: "Idle rotation tick cadence",
			},
			&cli.IntFlag{
				Name:  "source-timeout-ms",
				Usage: "Hop source fetch deadline",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "YAML path catalog file (hot-reloaded)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose logging",
			},
		},
		Action: runServe,
	}
}

// runServe wires together all components: hop source, surface bridge,
// trace engine, and the web UI server.
func runServe(cliCtx context.Context, cmd *cli.Command) error {
	cfg, err := LoadEffectiveConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	cfg = MergeConfigs(cfg, flagOverlay(cmd))

	banner.Print(Version)

	if cfg.Verbose {
		log.Println("🔧 Configuration:")
		log.Printf("  HTTP bind: %s:%d\n", cfg.HTTPHost, cfg.HTTPPort)
		log.Printf("  Reveal interval: %dms\n", cfg.RevealIntervalMs)
		log.Printf("  Idle rotation: %.2f°/%dms\n", cfg.RotateStepDeg, cfg.RotateIntervalMs)
		log.Printf("  Source timeout: %dms\n", cfg.SourceTimeoutMs)
		log.Println()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Hop source: mock catalog, optional YAML overrides, deadline.
	mock := hopsource.NewMock()
	mock.Delay = time.Duration(cfg.SourceDelayMs) * time.Millisecond
	if cfg.CatalogPath != "" {
		if err := hopsource.WatchCatalog(ctx, cfg.CatalogPath, mock); err != nil {
			return fmt.Errorf("failed to load path catalog: %w", err)
		}
	}
	source := hopsource.WithTimeout(mock, time.Duration(cfg.SourceTimeoutMs)*time.Millisecond)

	// 2. Surface bridge and trace engine.
	bridge := surface.NewBridge()
	engine := tracer.New(bridge, source, tracer.Options{
		RevealInterval:  time.Duration(cfg.RevealIntervalMs) * time.Millisecond,
		FitPaddingPx:    cfg.FitPaddingPx,
		RotateStepDeg:   cfg.RotateStepDeg,
		RotateInterval:  time.Duration(cfg.RotateIntervalMs) * time.Millisecond,
		HistoryCapacity: cfg.HistorySize,
	})
	defer engine.Dispose()

	if cfg.MapToken != "" {
		if err := engine.Initialize(cfg.MapToken); err != nil {
			return fmt.Errorf("failed to initialize map surface: %w", err)
		}
		log.Println("🗺️ Map surface initialized, idle rotation running")
	} else {
		log.Println("⚠️ No map token configured; the surface stays inert and trace requests will be rejected")
		log.Println("   Set --map-token or GEO_TRACER_MAP_TOKEN to activate it")
	}

	if cfg.Verbose {
		go logTraceEvents(engine)
	}

	// 3. Graceful shutdown on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("📡 Received signal %v, shutting down...\n", sig)
			cancel()
		case <-cliCtx.Done():
			cancel()
		}
	}()

	// 4. Web UI server (blocks until shutdown).
	server := webui.New(engine, bridge, mock.Targets)
	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	log.Printf("🌐 Geo tracer listening on http://%s\n", addr)
	return server.ListenAndServe(ctx, addr)
}

// flagOverlay builds a config overlay from the flags the user set.
func flagOverlay(cmd *cli.Command) *Config {
	return &Config{
		HTTPHost:         cmd.String("host"),
		HTTPPort:         cmd.Int("port"),
		MapToken:         cmd.String("map-token"),
		RevealIntervalMs: cmd.Int("reveal-interval-ms"),
		FitPaddingPx:     cmd.Int("fit-padding"),
		RotateStepDeg:    cmd.Float("rotate-step"),
		RotateIntervalMs: cmd.Int("rotate-interval-ms"),
		SourceTimeoutMs:  cmd.Int("source-timeout-ms"),
		CatalogPath:      cmd.String("catalog"),
		Verbose:          cmd.Bool("verbose"),
	}
}

// logTraceEvents mirrors engine notifications onto the console with
// latency summaries colorized by band.
func logTraceEvents(engine *tracer.Engine) {
	events, unsubscribe := engine.SubscribeEvents()
	defer unsubscribe()

	for ev := range events {
		switch ev.Kind {
		case tracer.EventTraceComplete:
			log.Printf("✅ %s\n", ev.Message)
			for _, h := range engine.Snapshot().Hops {
				log.Printf("   %s  %s\n", h.Label(), banner.SprintLatency(h.LatencyMs))
			}
		case tracer.EventTraceFailed:
			log.Printf("❌ %s\n", ev.Message)
		case tracer.EventSurfaceNotReady:
			log.Printf("⚠️ %s\n", ev.Message)
		default:
			log.Printf("🛰️ %s\n", ev.Message)
		}
	}
}
