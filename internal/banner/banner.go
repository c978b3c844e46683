// Package banner prints the startup banner and the colorized console
// trace log used in verbose mode.
package banner

import (
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/hop"
)

// Print writes the startup banner to stdout.
func Print(version string) {
	fig := figure.NewColorFigure("GEO TRACER", "doom", "cyan", true)
	fig.Print()

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Println("════════════════════════════════════════════════")
	_, _ = green.Println("    Network path visualizer on a 3-D globe | v" + version)
	_, _ = cyan.Println("════════════════════════════════════════════════")
}

// bandColor maps a latency band to its console color.
func bandColor(b hop.Band) *color.Color {
	switch b {
	case hop.BandGood:
		return color.New(color.FgGreen)
	case hop.BandWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// SprintLatency renders a latency readout colorized by its band, for
// verbose hop logging.
func SprintLatency(ms float64) string {
	return bandColor(hop.LatencyBand(ms)).Sprintf("%.1f ms", ms)
}
