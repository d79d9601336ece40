package tour

import "errors"

// Common errors returned by the tour simulator
var (
	ErrNoWaypoints          = errors.New("tour needs at least one waypoint")
	ErrInvalidWaypoint      = errors.New("waypoint coordinates out of range")
	ErrInvalidJitter        = errors.New("jitter range must be non-negative")
	ErrInvalidSpeedVariance = errors.New("speed variance must be non-negative")
	ErrInvalidJourneyStep   = errors.New("journey step must be greater than 0 and at most 1")
	ErrInvalidProximity     = errors.New("waypoint proximity must be positive")
	ErrInvalidEarthRadius   = errors.New("earth radius must be positive")
	ErrInvalidTickInterval  = errors.New("tick interval must be positive")
	ErrInvalidTimeout       = errors.New("geocode timeout must be positive")
	ErrInvalidOutputRate    = errors.New("output rate must be positive")
	ErrInvalidDuration      = errors.New("duration must be non-negative")
	ErrRunnerNotRunning     = errors.New("runner is not running")
	ErrRunnerAlreadyRunning = errors.New("runner is already running")
)
