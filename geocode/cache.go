package geocode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/santatracker/santa-tracker/internal/metrics"
)

type coordinates struct {
	lat, lon float64
}

// Cache memoizes successful lookups of another Geocoder. Reverse lookups are
// keyed by coordinates rounded to a fixed number of decimals, so nearby
// fixes share an entry. When full, the cache is emptied.
type Cache struct {
	mu         sync.Mutex
	next       Geocoder
	precision  int
	maxEntries int
	forward    map[string]coordinates
	reverse    map[string]string
}

// NewCache wraps next. precision is the number of decimals kept for reverse
// keys (2 is roughly 1 km); maxEntries bounds each direction.
func NewCache(next Geocoder, maxEntries, precision int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if precision < 0 {
		precision = 0
	}
	return &Cache{
		next:       next,
		precision:  precision,
		maxEntries: maxEntries,
		forward:    make(map[string]coordinates),
		reverse:    make(map[string]string),
	}
}

// Len returns the number of cached entries in both directions
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.forward) + len(c.reverse)
}

// Geocode implements Geocoder
func (c *Cache) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" {
		return 0, 0, false
	}

	c.mu.Lock()
	hit, ok := c.forward[key]
	c.mu.Unlock()
	if ok {
		metrics.GeocodeRequests.WithLabelValues("forward", resultCacheHit).Inc()
		return hit.lat, hit.lon, true
	}

	lat, lon, ok := c.next.Geocode(ctx, address)
	if !ok {
		return 0, 0, false
	}

	c.mu.Lock()
	if len(c.forward) >= c.maxEntries {
		c.forward = make(map[string]coordinates)
	}
	c.forward[key] = coordinates{lat: lat, lon: lon}
	c.mu.Unlock()
	return lat, lon, true
}

// ReverseGeocode implements Geocoder
func (c *Cache) ReverseGeocode(ctx context.Context, lat, lon float64) (string, bool) {
	key := fmt.Sprintf("%.*f,%.*f", c.precision, lat, c.precision, lon)

	c.mu.Lock()
	hit, ok := c.reverse[key]
	c.mu.Unlock()
	if ok {
		metrics.GeocodeRequests.WithLabelValues("reverse", resultCacheHit).Inc()
		return hit, true
	}

	name, ok := c.next.ReverseGeocode(ctx, lat, lon)
	if !ok || name == "" {
		return "", false
	}

	c.mu.Lock()
	if len(c.reverse) >= c.maxEntries {
		c.reverse = make(map[string]string)
	}
	c.reverse[key] = name
	c.mu.Unlock()
	return name, true
}
