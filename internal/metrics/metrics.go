package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TicksTotal counts Advance calls made by a runner
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "santa",
			Name:      "ticks_total",
			Help:      "Total number of simulated fixes produced",
		},
		[]string{"tour"},
	)

	// LegsCompleted counts waypoint legs finished by the simulator
	LegsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "santa",
			Name:      "legs_completed_total",
			Help:      "Total number of tour legs completed",
		},
		[]string{"tour"},
	)

	// SpeedKmh is the last reported speed
	SpeedKmh = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "santa",
			Name:      "speed_kmh",
			Help:      "Last simulated speed in km/h (signed noise included)",
		},
		[]string{"tour"},
	)

	// DistanceFromUserKm is the last distance to the destination
	DistanceFromUserKm = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "santa",
			Name:      "distance_from_user_km",
			Help:      "Last great-circle distance to the destination in km",
		},
		[]string{"tour"},
	)

	// GeocodeRequests counts geocoding lookups by operation and outcome
	GeocodeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "santa",
			Name:      "geocode_requests_total",
			Help:      "Total number of geocoding lookups",
		},
		[]string{"operation", "result"},
	)

	// WebSocketClients is the number of connected websocket clients
	WebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "santa",
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(TicksTotal)
		prometheus.DefaultRegisterer.Register(LegsCompleted)
		prometheus.DefaultRegisterer.Register(SpeedKmh)
		prometheus.DefaultRegisterer.Register(DistanceFromUserKm)
		prometheus.DefaultRegisterer.Register(GeocodeRequests)
		prometheus.DefaultRegisterer.Register(WebSocketClients)
	})
}
