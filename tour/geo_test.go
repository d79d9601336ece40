package tour

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		delta                  float64
	}{
		{"Same point", 48.8566, 2.3522, 48.8566, 2.3522, 0, 0},
		{"Paris to London", 48.8566, 2.3522, 51.5074, -0.1278, 343.5, 1},
		{"Pole to equator", 90, 0, 0, 0, math.Pi / 2 * EarthRadiusKm, 1e-6},
		{"Antipodes", 0, 0, 0, 180, math.Pi * EarthRadiusKm, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	waypoints := DefaultWaypoints()
	for _, a := range waypoints {
		for _, b := range waypoints {
			d1 := Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
			d2 := Distance(b.Latitude, b.Longitude, a.Latitude, a.Longitude)
			assert.InDelta(t, d1, d2, 1e-9, "%s <-> %s", a.Name, b.Name)
			assert.GreaterOrEqual(t, d1, 0.0)
		}
	}
}

func TestDistanceWithRadius(t *testing.T) {
	km := DistanceWithRadius(0, 0, 0, 90, EarthRadiusKm)
	unit := DistanceWithRadius(0, 0, 0, 90, 1)
	assert.InDelta(t, math.Pi/2, unit, 1e-12)
	assert.InDelta(t, km, unit*EarthRadiusKm, 1e-9)
}

func TestETA(t *testing.T) {
	assert.Equal(t, 5.0, ETA(500, 100))
	assert.Equal(t, 0.0, ETA(100, 0))
	assert.Equal(t, 0.0, ETA(100, -250))
	assert.Equal(t, 0.0, ETA(0, 100))
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
	}{
		{"North", 0, 0, 10, 0, 0},
		{"East", 0, 0, 0, 10, 90},
		{"South", 10, 0, 0, 0, 180},
		{"West", 0, 0, 0, -10, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2), 1e-9)
		})
	}
}
