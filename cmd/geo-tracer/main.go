package main

import (
	"context"
	"fmt"
	"os"

	cliframework "github.com/urfave/cli/v3"

	"github.com/S-Harshitha006/geo-tracer-mapper/internal/cli"
)

const version = "0.1.0-dev"

func main() {
	cli.Version = version

	app := &cliframework.Command{
		Name:    "geo-tracer",
		Usage:   "Animated network path visualizer on a 3-D globe",
		Version: version,
		Commands: []*cliframework.Command{
			cli.ServeCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ error: %v\n", err)
		os.Exit(1)
	}
}
