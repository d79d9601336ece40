package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"github.com/santatracker/santa-tracker/geocode"
	"github.com/santatracker/santa-tracker/internal/config"
	"github.com/santatracker/santa-tracker/internal/metrics"
	"github.com/santatracker/santa-tracker/internal/telemetry"
	"github.com/santatracker/santa-tracker/tour"
	"github.com/santatracker/santa-tracker/web/server"
)

// Version information - populated at build time via ldflags
var (
	Version   = "dev"     // Will be set to git tag if available, otherwise "dev"
	Commit    = "unknown" // Will be set to git commit hash
	BuildDate = "unknown" // Will be set to build timestamp
)

var errDurationElapsed = errors.New("duration elapsed")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("santa-tracker failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	if opts.showVersion {
		if Version != "dev" {
			fmt.Printf("v%s\n", Version)
		} else {
			fmt.Printf("%s\n", Commit)
		}
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if opts.trace {
		shutdownTracer, err := telemetry.InitTracer(os.Stderr, Version)
		if err != nil {
			logger.Error("failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Error("failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	metrics.InitMetrics()

	geocoder := newGeocoder(cfg, logger)

	waypoints, err := cfg.Waypoints()
	if err != nil {
		return fmt.Errorf("loading waypoints: %w", err)
	}

	sim, err := tour.NewSimulator(waypoints, geocoder, cfg.TourConfig())
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}
	sim.SetLogger(logger)

	runner, err := tour.NewRunner(sim, cfg.RunnerConfig())
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}
	runner.SetLogger(logger)

	// NMEA goes to the serial port when one is given, otherwise to stdout on request
	if cfg.Output.SerialPort != "" {
		mode := &serial.Mode{
			BaudRate: cfg.Output.BaudRate,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
		port, err := serial.Open(cfg.Output.SerialPort, mode)
		if err != nil {
			return fmt.Errorf("failed to open serial port %s: %w", cfg.Output.SerialPort, err)
		}
		defer port.Close()
		runner.SetNMEAWriter(port)
		logger.Info("opened serial port", "port", cfg.Output.SerialPort, "baud", cfg.Output.BaudRate)
	} else if cfg.Output.NMEA {
		runner.SetNMEAWriter(os.Stdout)
	}

	if cfg.Output.RecordGPX != "" {
		filename := cfg.Output.RecordGPX
		if filename == "auto" {
			filename = fmt.Sprintf("%s.gpx", time.Now().Format("20060102_150405"))
		}
		recorder, err := tour.NewGPXRecorder(filename)
		if err != nil {
			return err
		}
		runner.SetGPXRecorder(recorder)
		logger.Info("recording flight", "gpx", filename)
	}

	if !cfg.Output.Quiet {
		runner.AddCallback(func(update tour.LocationUpdate) {
			fmt.Fprintln(os.Stderr, consoleLine(update))
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := setDestination(ctx, cfg.Destination, geocoder, runner); err != nil {
		return err
	}

	if !cfg.Output.Quiet {
		printBanner(os.Stderr, cfg, sim)
	}

	if err := runner.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var finished <-chan struct{}
	if cfg.Output.Duration > 0 {
		finished = runner.Done()
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
			if err := runner.Stop(); err != nil && !errors.Is(err, tour.ErrRunnerNotRunning) {
				return err
			}
			return nil
		case <-finished:
			return errDurationElapsed
		}
	})

	if cfg.Web.Enable {
		ws := server.NewWebServer(runner, geocoder)
		ws.SetLogger(logger)
		ws.SetStaticDir(cfg.Web.StaticDir)
		g.Go(func() error {
			return ws.ListenAndServe(gctx, cfg.Web.Addr)
		})
	}

	err = g.Wait()
	if errors.Is(err, errDurationElapsed) {
		err = nil
	}
	logger.Info("santa-tracker stopped", "ticks", runner.Status().Ticks)
	return err
}

func loadConfig(opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("config load failed: %w", err)
		}
		cfg = loaded
	}

	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

func newGeocoder(cfg config.Config, logger *slog.Logger) geocode.Geocoder {
	if cfg.Geocode.Provider == "none" {
		return geocode.Noop{}
	}
	nominatim := geocode.NewNominatim(cfg.NominatimConfig())
	nominatim.SetLogger(logger)
	if cfg.Geocode.CacheSize == 0 {
		return nominatim
	}
	return geocode.NewCache(nominatim, cfg.Geocode.CacheSize, cfg.Geocode.CachePrecision)
}

// setDestination applies explicit coordinates, or geocodes the address.
// An address that cannot be found is logged and ignored.
func setDestination(ctx context.Context, dest config.DestinationConfig, geocoder geocode.Geocoder, runner *tour.Runner) error {
	if dest.Latitude != nil && dest.Longitude != nil {
		runner.SetDestination(*dest.Latitude, *dest.Longitude)
		return nil
	}
	if dest.Address == "" {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	lat, lon, ok := geocoder.Geocode(lookupCtx, dest.Address)
	if !ok {
		slog.Warn("destination not found, continuing without one", "address", dest.Address)
		return nil
	}
	runner.SetDestination(lat, lon)
	slog.Info("destination set", "address", dest.Address, "lat", lat, "lon", lon)
	return nil
}

func consoleLine(update tour.LocationUpdate) string {
	line := fmt.Sprintf("%s | %s", tour.FormatLocation(update), tour.FormatSpeed(update.Speed))
	if update.DistanceFromUser != nil {
		line += " | ETA " + tour.FormatETA(update.ETA())
	}
	return line
}

func printBanner(w io.Writer, cfg config.Config, sim *tour.Simulator) {
	waypoints := sim.Waypoints()
	fmt.Fprintf(w, "Starting Santa Tracker (%s)...\n", sim.ID())
	fmt.Fprintf(w, "Tour: %d waypoints, starting at %s\n", len(waypoints), waypoints[0].Name)
	fmt.Fprintf(w, "Update rate: %v\n", cfg.Output.Rate)
	fmt.Fprintf(w, "Journey step: %.3f (%d updates per leg)\n", cfg.Tour.JourneyStep, int(1/cfg.Tour.JourneyStep+0.5))
	fmt.Fprintf(w, "Jitter: %.3f degrees, speed variance: %.0f km/h\n", cfg.Tour.JitterDeg, cfg.Tour.SpeedVarianceKmh)
	fmt.Fprintf(w, "Geocoder: %s\n", cfg.Geocode.Provider)
	if cfg.Output.SerialPort != "" {
		fmt.Fprintf(w, "NMEA output: %s (%d baud)\n", cfg.Output.SerialPort, cfg.Output.BaudRate)
	} else if cfg.Output.NMEA {
		fmt.Fprintf(w, "NMEA output: stdout\n")
	}
	if cfg.Web.Enable {
		fmt.Fprintf(w, "Web: http://localhost%s\n", cfg.Web.Addr)
	}
	fmt.Fprintf(w, "\nPress Ctrl+C to stop\n\n")
}
