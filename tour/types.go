package tour

import "time"

// Waypoint is a named vertex of the tour
type Waypoint struct {
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"lat"`
	Longitude float64 `json:"longitude" yaml:"lon"`
}

// Coordinate is a bare latitude/longitude pair in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SimulationState is the mutable part of a Simulator. Callers only ever see copies.
type SimulationState struct {
	CurrentLatitude      float64 `json:"current_latitude"`
	CurrentLongitude     float64 `json:"current_longitude"`
	CurrentWaypointIndex int     `json:"current_waypoint_index"`
	NextWaypointIndex    int     `json:"next_waypoint_index"`
	JourneyProgress      float64 `json:"journey_progress"` // [0, 1)
	Ticks                int     `json:"ticks"`
	LegsCompleted        int     `json:"legs_completed"`
}

// Leg describes the segment the simulator is travelling after a tick
type Leg struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Progress float64 `json:"progress"`
}

// LocationUpdate is the simulated fix produced by a single Advance call
type LocationUpdate struct {
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Speed            float64   `json:"speed"`  // km/h, may be negative unless clamped
	Course           float64   `json:"course"` // degrees
	LocationName     string    `json:"location_name"`
	DistanceFromUser *float64  `json:"distance_from_user,omitempty"` // km
	Leg              Leg       `json:"leg"`
	Timestamp        time.Time `json:"timestamp"`
}

// ETA returns the hours needed to cover DistanceFromUser at Speed, or 0 when unknown
func (u LocationUpdate) ETA() float64 {
	if u.DistanceFromUser == nil {
		return 0
	}
	return ETA(*u.DistanceFromUser, u.Speed)
}

// Status represents the current runner status
type Status struct {
	ID          string          `json:"id"`
	Running     bool            `json:"running"`
	StartTime   time.Time       `json:"start_time,omitempty"`
	ElapsedTime time.Duration   `json:"elapsed_time"`
	Ticks       int             `json:"ticks"`
	State       SimulationState `json:"state"`
	LastUpdate  *LocationUpdate `json:"last_update,omitempty"`
	Destination *Coordinate     `json:"destination,omitempty"`
	Config      RunnerConfig    `json:"config"`
}
