package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/santatracker/santa-tracker/geocode"
	"github.com/santatracker/santa-tracker/tour"
)

// Config is the on-disk configuration of the tracker
type Config struct {
	Tour        TourConfig        `yaml:"tour"`
	Geocode     GeocodeConfig     `yaml:"geocode"`
	Output      OutputConfig      `yaml:"output"`
	Web         WebConfig         `yaml:"web"`
	Log         LogConfig         `yaml:"log"`
	Destination DestinationConfig `yaml:"destination"`
}

type TourConfig struct {
	Waypoints        []tour.Waypoint `yaml:"waypoints"`
	GPXFile          string          `yaml:"gpx_file"`
	JitterDeg        float64         `yaml:"jitter_deg"`
	SpeedVarianceKmh float64         `yaml:"speed_variance_kmh"`
	JourneyStep      float64         `yaml:"journey_step"`
	ProximityKm      float64         `yaml:"proximity_km"`
	EarthRadiusKm    float64         `yaml:"earth_radius_km"`
	TickInterval     time.Duration   `yaml:"tick_interval"`
	GeocodeTimeout   time.Duration   `yaml:"geocode_timeout"`
	ClampSpeed       bool            `yaml:"clamp_speed"`
}

type GeocodeConfig struct {
	Provider       string        `yaml:"provider"` // nominatim | none
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	Zoom           int           `yaml:"zoom"`
	CacheSize      int           `yaml:"cache_size"` // 0 disables the cache
	CachePrecision int           `yaml:"cache_precision"`
}

type OutputConfig struct {
	Rate       time.Duration `yaml:"rate"`
	Duration   time.Duration `yaml:"duration"`
	NMEA       bool          `yaml:"nmea"`
	SerialPort string        `yaml:"serial_port"`
	BaudRate   int           `yaml:"baud_rate"`
	RecordGPX  string        `yaml:"record_gpx"`
	Quiet      bool          `yaml:"quiet"`
}

type WebConfig struct {
	Enable    bool   `yaml:"enable"`
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// DestinationConfig is the user's point of interest. Address is geocoded at
// startup; explicit coordinates win over it.
type DestinationConfig struct {
	Address   string   `yaml:"address"`
	Latitude  *float64 `yaml:"lat"`
	Longitude *float64 `yaml:"lon"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	tc := tour.DefaultConfig()
	rc := tour.DefaultRunnerConfig()
	nc := geocode.DefaultNominatimConfig()

	return Config{
		Tour: TourConfig{
			JitterDeg:        tc.JitterRange,
			SpeedVarianceKmh: tc.SpeedVariance,
			JourneyStep:      tc.JourneyStep,
			ProximityKm:      tc.ProximityKm,
			EarthRadiusKm:    tc.EarthRadiusKm,
			TickInterval:     tc.TickInterval,
			GeocodeTimeout:   tc.GeocodeTimeout,
			ClampSpeed:       tc.ClampSpeed,
		},
		Geocode: GeocodeConfig{
			Provider:       "nominatim",
			BaseURL:        nc.BaseURL,
			UserAgent:      nc.UserAgent,
			Timeout:        nc.Timeout,
			Zoom:           nc.Zoom,
			CacheSize:      1024,
			CachePrecision: 2,
		},
		Output: OutputConfig{
			Rate:     rc.OutputRate,
			BaudRate: 9600,
		},
		Web: WebConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file on top of Default and validates the result
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML on top of Default and validates the result
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and the embedded tour settings
func (c *Config) Validate() error {
	tc := c.TourConfig()
	if err := tc.Validate(); err != nil {
		return fmt.Errorf("tour: %w", err)
	}
	if len(c.Tour.Waypoints) > 0 && c.Tour.GPXFile != "" {
		return fmt.Errorf("tour.waypoints and tour.gpx_file cannot both be set")
	}
	if len(c.Tour.Waypoints) > 0 {
		if err := tour.ValidateWaypoints(c.Tour.Waypoints); err != nil {
			return fmt.Errorf("tour.waypoints: %w", err)
		}
	}

	switch c.Geocode.Provider {
	case "nominatim", "none":
	default:
		return fmt.Errorf("geocode.provider must be 'nominatim' or 'none'")
	}
	if c.Geocode.CacheSize < 0 {
		return fmt.Errorf("geocode.cache_size must be >= 0")
	}

	rc := c.RunnerConfig()
	if err := rc.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if c.Output.SerialPort != "" && c.Output.BaudRate <= 0 {
		return fmt.Errorf("output.baud_rate must be > 0 when output.serial_port is set")
	}

	if c.Web.Enable && c.Web.Addr == "" {
		return fmt.Errorf("web.addr is required when web.enable is true")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}

	if (c.Destination.Latitude == nil) != (c.Destination.Longitude == nil) {
		return fmt.Errorf("destination.lat and destination.lon must be set together")
	}
	return nil
}

// TourConfig converts the tour section to simulator tunables
func (c Config) TourConfig() tour.Config {
	return tour.Config{
		JitterRange:    c.Tour.JitterDeg,
		SpeedVariance:  c.Tour.SpeedVarianceKmh,
		JourneyStep:    c.Tour.JourneyStep,
		ProximityKm:    c.Tour.ProximityKm,
		EarthRadiusKm:  c.Tour.EarthRadiusKm,
		TickInterval:   c.Tour.TickInterval,
		GeocodeTimeout: c.Tour.GeocodeTimeout,
		ClampSpeed:     c.Tour.ClampSpeed,
	}
}

// RunnerConfig converts the output section to runner settings
func (c Config) RunnerConfig() tour.RunnerConfig {
	rc := tour.DefaultRunnerConfig()
	rc.OutputRate = c.Output.Rate
	rc.Duration = c.Output.Duration
	return rc
}

// NominatimConfig converts the geocode section to client settings
func (c Config) NominatimConfig() geocode.NominatimConfig {
	return geocode.NominatimConfig{
		BaseURL:   c.Geocode.BaseURL,
		UserAgent: c.Geocode.UserAgent,
		Timeout:   c.Geocode.Timeout,
		Zoom:      c.Geocode.Zoom,
	}
}

// Waypoints returns the tour to fly: a GPX file, inline waypoints, or the default tour
func (c Config) Waypoints() ([]tour.Waypoint, error) {
	if c.Tour.GPXFile != "" {
		return tour.ReadWaypointsGPX(c.Tour.GPXFile)
	}
	if len(c.Tour.Waypoints) > 0 {
		wps := make([]tour.Waypoint, len(c.Tour.Waypoints))
		copy(wps, c.Tour.Waypoints)
		return wps, nil
	}
	return tour.DefaultWaypoints(), nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error")
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return 0, err
	}
	return level, nil
}
