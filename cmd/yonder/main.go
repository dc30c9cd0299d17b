// Command yonder runs a single heading search from the command line and prints its
// progress.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"overyonder.app/internal/app"
	"overyonder.app/internal/appconf"
	"overyonder.app/internal/geodesy"
	"overyonder.app/internal/logging"
	"overyonder.app/internal/models"
	"overyonder.app/internal/search"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configDir string
		lat, lon  float64
		heading   float64
		start     float64
		increment float64
		verbose   bool
	)
	flag.StringVar(&configDir, "config", "", "Directory containing config.yaml")
	flag.Float64Var(&lat, "lat", 0, "Origin latitude")
	flag.Float64Var(&lon, "lon", 0, "Origin longitude")
	flag.Float64Var(&heading, "heading", -1, "Heading in degrees (default from config)")
	flag.Float64Var(&start, "start", 0, "First search distance in km (default: one increment)")
	flag.Float64Var(&increment, "increment", 0, "Distance increment in km (default from config)")
	flag.BoolVar(&verbose, "v", false, "Log oracle traffic to stderr")
	flag.Parse()

	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := appconf.Load(paths...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(level), "text")

	if heading < 0 {
		heading = cfg.Search.DefaultHeadingDeg
	}
	if increment <= 0 {
		increment = cfg.Search.DistanceIncrementKm
	}
	if start <= 0 {
		start = increment
	}

	req := search.Request{
		Origin:          models.Coordinate{Latitude: lat, Longitude: lon},
		Heading:         geodesy.NormalizeHeading(heading),
		StartDistanceKm: start,
		IncrementKm:     increment,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := search.NewEngine(app.NewOracleClient(cfg.Oracle, logger), cfg.Search.MaxSearchAttempts, logger)

	fmt.Printf("Heading %.1f° %s from %.5f, %.5f\n", req.Heading, geodesy.BearingToCompass(req.Heading), lat, lon)
	out := engine.Search(ctx, req, search.ReporterFuncs{
		OnProgress: func(ev search.ProgressEvent) {
			fmt.Println(ev.Status)
		},
		OnOutcome: func(out search.Outcome) {
			fmt.Println(out.Message())
			if out.Destination != nil {
				fmt.Printf("  at %.5f, %.5f\n", out.Destination.Location.Latitude, out.Destination.Location.Longitude)
			}
		},
	})

	switch out.Status {
	case search.StatusFound:
		return 0
	case search.StatusCancelled:
		fmt.Println("Search cancelled")
		return 130
	case search.StatusFailed:
		return 2
	default:
		return 1
	}
}
