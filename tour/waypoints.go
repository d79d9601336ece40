package tour

import (
	"fmt"
	"math"
)

// DefaultWaypoints returns the built-in Christmas Eve route.
// Montreal keeps its historical (eastern) longitude.
func DefaultWaypoints() []Waypoint {
	return []Waypoint{
		{Name: "North Pole", Latitude: 90, Longitude: 0},
		{Name: "Anchorage", Latitude: 61.2181, Longitude: -149.9003},
		{Name: "Tokyo", Latitude: 35.6762, Longitude: 139.6503},
		{Name: "Sydney", Latitude: -33.8688, Longitude: 151.2093},
		{Name: "Montreal", Latitude: 45.5019, Longitude: 73.5674},
		{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777},
		{Name: "Moscow", Latitude: 55.7558, Longitude: 37.6173},
		{Name: "Paris", Latitude: 48.8566, Longitude: 2.3522},
		{Name: "London", Latitude: 51.5074, Longitude: -0.1278},
		{Name: "New York", Latitude: 40.7128, Longitude: -74.0060},
		{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437},
	}
}

// ValidateWaypoints checks that a tour is non-empty and every coordinate is in range
func ValidateWaypoints(waypoints []Waypoint) error {
	if len(waypoints) == 0 {
		return ErrNoWaypoints
	}
	for i, wp := range waypoints {
		if math.IsNaN(wp.Latitude) || wp.Latitude < -90 || wp.Latitude > 90 ||
			math.IsNaN(wp.Longitude) || wp.Longitude < -180 || wp.Longitude > 180 {
			return fmt.Errorf("waypoint %d (%q): %w", i, wp.Name, ErrInvalidWaypoint)
		}
	}
	return nil
}

// NearestWaypoint returns the index of the waypoint closest to the given point
// and its distance in units of radius. Ties go to the earliest waypoint.
func NearestWaypoint(waypoints []Waypoint, lat, lon, radius float64) (int, float64) {
	nearest := -1
	shortest := math.MaxFloat64
	for i, wp := range waypoints {
		d := DistanceWithRadius(lat, lon, wp.Latitude, wp.Longitude, radius)
		if d < shortest {
			shortest = d
			nearest = i
		}
	}
	return nearest, shortest
}

// nearestWaypointName names a position after the closest waypoint: verbatim
// within ProximityKm, "Flying over <name>" beyond it.
func (s *Simulator) nearestWaypointName(lat, lon float64) string {
	idx, distance := NearestWaypoint(s.waypoints, lat, lon, s.config.EarthRadiusKm)
	if idx < 0 {
		return "In Transit"
	}
	name := s.waypoints[idx].Name
	if distance < s.config.ProximityKm {
		return name
	}
	return "Flying over " + name
}
