package tour

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/santatracker/santa-tracker/tour")

// ReverseGeocoder resolves a position to a human-readable place name.
// Implementations report failures as ok == false rather than as errors.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (name string, ok bool)
}

// Simulator moves a simulated position around a closed tour of waypoints.
// It owns no goroutines; something else (usually a Runner) calls Advance.
type Simulator struct {
	mu        sync.Mutex
	id        string
	config    Config
	waypoints []Waypoint
	state     SimulationState
	rng       *rand.Rand
	geocoder  ReverseGeocoder
	logger    *slog.Logger
}

// NewSimulator creates a simulator positioned on the first waypoint.
// A nil geocoder always falls back to nearest-waypoint naming.
func NewSimulator(waypoints []Waypoint, geocoder ReverseGeocoder, config Config) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateWaypoints(waypoints); err != nil {
		return nil, err
	}

	wps := make([]Waypoint, len(waypoints))
	copy(wps, waypoints)

	sim := &Simulator{
		id:        "tour-" + xid.New().String(),
		config:    config,
		waypoints: wps,
		state: SimulationState{
			CurrentLatitude:      wps[0].Latitude,
			CurrentLongitude:     wps[0].Longitude,
			CurrentWaypointIndex: 0,
			NextWaypointIndex:    1 % len(wps),
			JourneyProgress:      0,
		},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		geocoder: geocoder,
		logger:   slog.Default(),
	}
	return sim, nil
}

// SetRand replaces the random source used for jitter and speed noise
func (s *Simulator) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// SetLogger sets the logger used for diagnostics
func (s *Simulator) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// ID returns the unique identifier of this simulator instance
func (s *Simulator) ID() string {
	return s.id
}

// Config returns the simulator configuration
func (s *Simulator) Config() Config {
	return s.config
}

// Waypoints returns a copy of the tour
func (s *Simulator) Waypoints() []Waypoint {
	wps := make([]Waypoint, len(s.waypoints))
	copy(wps, s.waypoints)
	return wps
}

// State returns a snapshot of the simulation state
func (s *Simulator) State() SimulationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Advance produces the next simulated fix. When destination is non-nil the
// great-circle distance to it is included. Advance never fails: geocoding
// problems only change how the location is named.
func (s *Simulator) Advance(ctx context.Context, destination *Coordinate) LocationUpdate {
	ctx, span := tracer.Start(ctx, "tour.Advance")
	defer span.End()

	update := s.step()
	update.LocationName = s.locationName(ctx, update.Latitude, update.Longitude)

	if destination != nil {
		d := DistanceWithRadius(update.Latitude, update.Longitude,
			destination.Latitude, destination.Longitude, s.config.EarthRadiusKm)
		update.DistanceFromUser = &d
	}

	span.SetAttributes(
		attribute.String("tour.id", s.id),
		attribute.String("tour.location", update.LocationName),
		attribute.Float64("tour.speed_kmh", update.Speed),
	)
	return update
}

// step applies interpolation, jitter, speed estimation and progress
// bookkeeping. All state mutation of a tick happens here, under the lock.
func (s *Simulator) step() LocationUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.waypoints[s.state.CurrentWaypointIndex]
	next := s.waypoints[s.state.NextWaypointIndex]

	prevLat := s.state.CurrentLatitude
	prevLon := s.state.CurrentLongitude

	progress := s.state.JourneyProgress
	lat := current.Latitude + (next.Latitude-current.Latitude)*progress
	lon := current.Longitude + (next.Longitude-current.Longitude)*progress

	jitter := s.config.JitterRange
	lat += s.rng.Float64()*jitter*2 - jitter
	lon += s.rng.Float64()*jitter*2 - jitter

	distance := DistanceWithRadius(prevLat, prevLon, lat, lon, s.config.EarthRadiusKm)
	speed := distance / s.config.TickInterval.Hours()
	speed += s.rng.Float64()*s.config.SpeedVariance*2 - s.config.SpeedVariance
	if s.config.ClampSpeed && speed < 0 {
		speed = 0
	}

	s.state.CurrentLatitude = lat
	s.state.CurrentLongitude = lon
	s.state.Ticks++

	s.state.JourneyProgress += s.config.JourneyStep
	if s.state.JourneyProgress >= 1.0 {
		s.state.JourneyProgress = 0
		s.state.CurrentWaypointIndex = s.state.NextWaypointIndex
		s.state.NextWaypointIndex = (s.state.NextWaypointIndex + 1) % len(s.waypoints)
		s.state.LegsCompleted++
	}

	return LocationUpdate{
		Latitude:  lat,
		Longitude: lon,
		Speed:     speed,
		Course:    Bearing(prevLat, prevLon, lat, lon),
		Leg: Leg{
			From:     s.waypoints[s.state.CurrentWaypointIndex].Name,
			To:       s.waypoints[s.state.NextWaypointIndex].Name,
			Progress: s.state.JourneyProgress,
		},
		Timestamp: time.Now(),
	}
}

// locationName asks the geocoder for a place name, giving up after
// GeocodeTimeout, and falls back to the nearest waypoint.
func (s *Simulator) locationName(ctx context.Context, lat, lon float64) string {
	if s.geocoder == nil {
		return s.nearestWaypointName(lat, lon)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.GeocodeTimeout)
	defer cancel()

	result := make(chan string, 1)
	go func() {
		name, ok := s.geocoder.ReverseGeocode(ctx, lat, lon)
		if !ok {
			name = ""
		}
		result <- name
	}()

	select {
	case name := <-result:
		if name != "" {
			return name
		}
	case <-ctx.Done():
		s.log().Debug("reverse geocoding abandoned", "tour", s.id, "error", ctx.Err())
	}
	return s.nearestWaypointName(lat, lon)
}

func (s *Simulator) log() *slog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}
