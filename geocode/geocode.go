// Package geocode turns addresses into coordinates and coordinates into place
// names. Lookups never return errors to callers: a provider failure, a
// timeout and an unknown place all read as ok == false.
package geocode

import (
	"context"
	"errors"
)

// Geocoder is the capability consumed by the tracker
type Geocoder interface {
	// Geocode resolves an address to coordinates
	Geocode(ctx context.Context, address string) (lat, lon float64, ok bool)
	// ReverseGeocode resolves coordinates to a short place name
	ReverseGeocode(ctx context.Context, lat, lon float64) (name string, ok bool)
}

// Lookup outcomes, used as the "result" metric label
const (
	resultFound    = "found"
	resultNotFound = "not_found"
	resultError    = "error"
	resultTimeout  = "timeout"
	resultCacheHit = "cache_hit"
)

func outcome(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return resultTimeout
	}
	return resultError
}

// Noop never finds anything
type Noop struct{}

// Geocode implements Geocoder
func (Noop) Geocode(context.Context, string) (float64, float64, bool) {
	return 0, 0, false
}

// ReverseGeocode implements Geocoder
func (Noop) ReverseGeocode(context.Context, float64, float64) (string, bool) {
	return "", false
}
