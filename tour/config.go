package tour

import "time"

// Config holds the tunables of the tour simulator
type Config struct {
	JitterRange    float64       `json:"jitter_range"`    // degrees, applied as [-J, +J]
	SpeedVariance  float64       `json:"speed_variance"`  // km/h, applied as [-S, +S]
	JourneyStep    float64       `json:"journey_step"`    // progress added per tick
	ProximityKm    float64       `json:"proximity_km"`    // nearest-waypoint naming threshold
	EarthRadiusKm  float64       `json:"earth_radius_km"` // used by every distance computation
	TickInterval   time.Duration `json:"tick_interval"`   // time base of the speed estimate
	GeocodeTimeout time.Duration `json:"geocode_timeout"` // per-call bound on reverse geocoding
	ClampSpeed     bool          `json:"clamp_speed"`     // clamp negative post-noise speeds to 0
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		JitterRange:    0.05,
		SpeedVariance:  500,
		JourneyStep:    0.02,
		ProximityKm:    500,
		EarthRadiusKm:  EarthRadiusKm,
		TickInterval:   1 * time.Second,
		GeocodeTimeout: 10 * time.Second,
		ClampSpeed:     false,
	}
}

// Validate checks if the configuration is valid and returns an error if not
func (c *Config) Validate() error {
	if c.JitterRange < 0 {
		return ErrInvalidJitter
	}
	if c.SpeedVariance < 0 {
		return ErrInvalidSpeedVariance
	}
	if c.JourneyStep <= 0 || c.JourneyStep > 1 {
		return ErrInvalidJourneyStep
	}
	if c.ProximityKm <= 0 {
		return ErrInvalidProximity
	}
	if c.EarthRadiusKm <= 0 {
		return ErrInvalidEarthRadius
	}
	if c.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}
	if c.GeocodeTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// RunnerConfig holds the scheduling options of a Runner
type RunnerConfig struct {
	OutputRate time.Duration `json:"output_rate"` // cadence of Advance calls
	Duration   time.Duration `json:"duration"`    // 0 = run indefinitely
	GPXFlush   int           `json:"gpx_flush"`   // rewrite the GPX file every N points
}

// DefaultRunnerConfig returns a five second cadence that runs until stopped
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		OutputRate: 5 * time.Second,
		Duration:   0,
		GPXFlush:   10,
	}
}

// Validate checks if the runner configuration is valid
func (c *RunnerConfig) Validate() error {
	if c.OutputRate <= 0 {
		return ErrInvalidOutputRate
	}
	if c.Duration < 0 {
		return ErrInvalidDuration
	}
	if c.GPXFlush <= 0 {
		c.GPXFlush = 10
	}
	return nil
}
