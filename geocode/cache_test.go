package geocode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheForward(t *testing.T) {
	server, requests := newFakeNominatim(t)
	cache := NewCache(NewNominatim(NominatimConfig{BaseURL: server.URL}), 8, 2)

	lat, lon, ok := cache.Geocode(context.Background(), "Rovaniemi")
	require.True(t, ok)
	assert.Equal(t, int32(1), requests.Load())

	lat2, lon2, ok := cache.Geocode(context.Background(), "  ROVANIEMI")
	require.True(t, ok)
	assert.Equal(t, lat, lat2)
	assert.Equal(t, lon, lon2)
	assert.Equal(t, int32(1), requests.Load(), "Second lookup should be served from cache")

	// Misses are not cached
	_, _, ok = cache.Geocode(context.Background(), "Atlantis")
	assert.False(t, ok)
	_, _, ok = cache.Geocode(context.Background(), "Atlantis")
	assert.False(t, ok)
	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, 1, cache.Len())

	_, _, ok = cache.Geocode(context.Background(), " ")
	assert.False(t, ok)
	assert.Equal(t, int32(3), requests.Load(), "Blank addresses never reach the provider")
}

func TestCacheReverse(t *testing.T) {
	server, requests := newFakeNominatim(t)
	cache := NewCache(NewNominatim(NominatimConfig{BaseURL: server.URL}), 8, 2)

	name, ok := cache.ReverseGeocode(context.Background(), 48.8566, 2.3522)
	require.True(t, ok)
	assert.Equal(t, "Paris", name)

	// Rounds to the same 2-decimal key
	name, ok = cache.ReverseGeocode(context.Background(), 48.8601, 2.3549)
	require.True(t, ok)
	assert.Equal(t, "Paris", name)
	assert.Equal(t, int32(1), requests.Load())

	_, ok = cache.ReverseGeocode(context.Background(), 0, 0)
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}

type countingGeocoder struct {
	calls int
}

func (c *countingGeocoder) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	c.calls++
	return 1, 2, true
}

func (c *countingGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, bool) {
	c.calls++
	return "Somewhere", true
}

func TestCacheEviction(t *testing.T) {
	next := &countingGeocoder{}
	cache := NewCache(next, 2, 0)

	cache.ReverseGeocode(context.Background(), 1, 1)
	cache.ReverseGeocode(context.Background(), 2, 2)
	assert.Equal(t, 2, cache.Len())

	// A third key empties the full map first
	cache.ReverseGeocode(context.Background(), 3, 3)
	assert.Equal(t, 1, cache.Len())

	cache.ReverseGeocode(context.Background(), 1, 1)
	assert.Equal(t, 4, next.calls, "Evicted entries are fetched again")

	cache.ReverseGeocode(context.Background(), 1.2, 0.9)
	assert.Equal(t, 4, next.calls, "Zero precision rounds to whole degrees")
}

func TestNewCacheDefaults(t *testing.T) {
	cache := NewCache(Noop{}, 0, -1)
	assert.Equal(t, 1024, cache.maxEntries)
	assert.Equal(t, 0, cache.precision)
}
