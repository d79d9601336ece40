package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/santatracker/santa-tracker/internal/config"
)

// options holds command line flags. Only flags the user actually set
// override the configuration file.
type options struct {
	configPath  string
	showVersion bool
	trace       bool

	rate          time.Duration
	duration      time.Duration
	tick          time.Duration
	jitter        float64
	speedVariance float64
	step          float64
	proximity     float64
	clampSpeed    bool
	gpxTour       string
	record        string
	nmea          bool
	serialPort    string
	baudRate      int
	web           bool
	addr          string
	staticDir     string
	destination   string
	destLat       float64
	destLon       float64
	geocoder      string
	nominatimURL  string
	logLevel      string
	logFormat     string
	quiet         bool

	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	defaults := config.Default()
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("santa-tracker", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information and exit")
	fs.BoolVar(&opts.trace, "trace", false, "Print OpenTelemetry spans to stderr")

	fs.DurationVar(&opts.rate, "rate", defaults.Output.Rate, "How often Santa's position is updated")
	fs.DurationVar(&opts.duration, "duration", 0, "How long to run (e.g., 30s, 5m, 1h). Default is indefinite")
	fs.DurationVar(&opts.tick, "tick", defaults.Tour.TickInterval, "Time base of the speed estimate")
	fs.Float64Var(&opts.jitter, "jitter", defaults.Tour.JitterDeg, "Position jitter range in degrees")
	fs.Float64Var(&opts.speedVariance, "speed-variance", defaults.Tour.SpeedVarianceKmh, "Speed noise range in km/h")
	fs.Float64Var(&opts.step, "step", defaults.Tour.JourneyStep, "Journey progress per update (0-1]")
	fs.Float64Var(&opts.proximity, "proximity", defaults.Tour.ProximityKm, "Distance in km within which Santa is 'at' a waypoint")
	fs.BoolVar(&opts.clampSpeed, "clamp-speed", false, "Clamp negative speeds to zero")
	fs.StringVar(&opts.gpxTour, "gpx-tour", "", "GPX file with the waypoints to fly (default: built-in tour)")
	fs.StringVar(&opts.record, "record", "", "Record the flight to a GPX file ('auto' for a timestamped name)")
	fs.BoolVar(&opts.nmea, "nmea", false, "Write NMEA sentences to stdout")
	fs.StringVar(&opts.serialPort, "serial", "", "Serial port for NMEA output (e.g., /dev/ttyUSB0, COM1)")
	fs.IntVar(&opts.baudRate, "baud", defaults.Output.BaudRate, "Serial port baud rate")
	fs.BoolVar(&opts.web, "web", false, "Serve the HTTP API and websocket feed")
	fs.StringVar(&opts.addr, "addr", defaults.Web.Addr, "HTTP listen address")
	fs.StringVar(&opts.staticDir, "static", "", "Directory of static files for the web UI")
	fs.StringVar(&opts.destination, "destination", "", "Address to measure Santa's distance to")
	fs.Float64Var(&opts.destLat, "dest-lat", 0, "Destination latitude (use with -dest-lon)")
	fs.Float64Var(&opts.destLon, "dest-lon", 0, "Destination longitude (use with -dest-lat)")
	fs.StringVar(&opts.geocoder, "geocoder", defaults.Geocode.Provider, "Geocoding provider: nominatim or none")
	fs.StringVar(&opts.nominatimURL, "nominatim-url", defaults.Geocode.BaseURL, "Nominatim base URL")
	fs.StringVar(&opts.logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", defaults.Log.Format, "Log format: text or json")
	fs.BoolVar(&opts.quiet, "quiet", false, "Suppress the per-update console line")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: santa-tracker [options]\n")
		fmt.Fprintf(output, "\nSanta Tracker\n")
		fmt.Fprintf(output, "Flies a simulated Santa around a tour of waypoints and reports where he is.\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	if opts.set["dest-lat"] != opts.set["dest-lon"] {
		return nil, fmt.Errorf("-dest-lat and -dest-lon must be used together")
	}
	return opts, nil
}

// apply overlays explicitly set flags on cfg
func (o *options) apply(cfg *config.Config) {
	if o.set["rate"] {
		cfg.Output.Rate = o.rate
	}
	if o.set["duration"] {
		cfg.Output.Duration = o.duration
	}
	if o.set["tick"] {
		cfg.Tour.TickInterval = o.tick
	}
	if o.set["jitter"] {
		cfg.Tour.JitterDeg = o.jitter
	}
	if o.set["speed-variance"] {
		cfg.Tour.SpeedVarianceKmh = o.speedVariance
	}
	if o.set["step"] {
		cfg.Tour.JourneyStep = o.step
	}
	if o.set["proximity"] {
		cfg.Tour.ProximityKm = o.proximity
	}
	if o.set["clamp-speed"] {
		cfg.Tour.ClampSpeed = o.clampSpeed
	}
	if o.set["gpx-tour"] {
		cfg.Tour.GPXFile = o.gpxTour
		cfg.Tour.Waypoints = nil
	}
	if o.set["record"] {
		cfg.Output.RecordGPX = o.record
	}
	if o.set["nmea"] {
		cfg.Output.NMEA = o.nmea
	}
	if o.set["serial"] {
		cfg.Output.SerialPort = o.serialPort
	}
	if o.set["baud"] {
		cfg.Output.BaudRate = o.baudRate
	}
	if o.set["web"] {
		cfg.Web.Enable = o.web
	}
	if o.set["addr"] {
		cfg.Web.Addr = o.addr
	}
	if o.set["static"] {
		cfg.Web.StaticDir = o.staticDir
	}
	if o.set["destination"] {
		cfg.Destination.Address = o.destination
	}
	if o.set["dest-lat"] && o.set["dest-lon"] {
		lat, lon := o.destLat, o.destLon
		cfg.Destination.Latitude = &lat
		cfg.Destination.Longitude = &lon
	}
	if o.set["geocoder"] {
		cfg.Geocode.Provider = o.geocoder
	}
	if o.set["nominatim-url"] {
		cfg.Geocode.BaseURL = o.nominatimURL
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.logLevel
	}
	if o.set["log-format"] {
		cfg.Log.Format = o.logFormat
	}
	if o.set["quiet"] {
		cfg.Output.Quiet = o.quiet
	}
}
