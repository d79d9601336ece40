package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeNominatim serves canned /search and /reverse responses
func newFakeNominatim(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "SantaTracker/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Rovaniemi":
			w.Write([]byte(`[{"lat":"66.5039","lon":"25.7294","display_name":"Rovaniemi, Lapland, Finland"},{"lat":"0","lon":"0"}]`))
		case "broken":
			w.Write([]byte(`[{"lat":"north","lon":"25.7294"}]`))
		case "teapot":
			w.WriteHeader(http.StatusTeapot)
		default:
			w.Write([]byte(`[]`))
		}
	})
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "10", q.Get("zoom"))

		w.Header().Set("Content-Type", "application/json")
		switch q.Get("lat") {
		case "48.8566":
			w.Write([]byte(`{"display_name":"  Paris , Ile-de-France, France"}`))
		case "0":
			w.Write([]byte(`{"error":"Unable to geocode"}`))
		case "1":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"display_name":"Slow"}`))
		default:
			w.Write([]byte(`not json`))
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNominatimGeocode(t *testing.T) {
	server, _ := newFakeNominatim(t)
	n := NewNominatim(NominatimConfig{BaseURL: server.URL + "/"})

	lat, lon, ok := n.Geocode(context.Background(), "  Rovaniemi ")
	require.True(t, ok)
	assert.Equal(t, 66.5039, lat)
	assert.Equal(t, 25.7294, lon)

	tests := []string{"Atlantis", "broken", "teapot", "   "}
	for _, address := range tests {
		t.Run(address, func(t *testing.T) {
			_, _, ok := n.Geocode(context.Background(), address)
			assert.False(t, ok)
		})
	}
}

func TestNominatimReverseGeocode(t *testing.T) {
	server, _ := newFakeNominatim(t)
	n := NewNominatim(NominatimConfig{BaseURL: server.URL})

	name, ok := n.ReverseGeocode(context.Background(), 48.8566, 2.3522)
	require.True(t, ok)
	assert.Equal(t, "Paris", name)

	_, ok = n.ReverseGeocode(context.Background(), 0, 0)
	assert.False(t, ok, "Open ocean should not resolve")

	_, ok = n.ReverseGeocode(context.Background(), 2, 2)
	assert.False(t, ok, "Malformed responses should not resolve")
}

func TestNominatimReverseGeocodeTimeout(t *testing.T) {
	server, _ := newFakeNominatim(t)
	n := NewNominatim(NominatimConfig{BaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := n.ReverseGeocode(ctx, 1, 1)
	assert.False(t, ok)
}

func TestNominatimUnreachable(t *testing.T) {
	n := NewNominatim(NominatimConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, ok := n.ReverseGeocode(context.Background(), 48.8566, 2.3522)
	assert.False(t, ok)
	_, _, ok = n.Geocode(context.Background(), "Rovaniemi")
	assert.False(t, ok)
}

func TestNewNominatimDefaults(t *testing.T) {
	n := NewNominatim(NominatimConfig{})
	assert.Equal(t, "https://nominatim.openstreetmap.org", n.baseURL)
	assert.Equal(t, "SantaTracker/1.0", n.userAgent)
	assert.Equal(t, 10, n.zoom)
	assert.Equal(t, 10*time.Second, n.client.Timeout)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, resultTimeout, outcome(context.DeadlineExceeded))
	assert.Equal(t, resultTimeout, outcome(context.Canceled))
	assert.Equal(t, resultError, outcome(ErrBlankAddress))
}

func TestNoop(t *testing.T) {
	var g Geocoder = Noop{}
	_, _, ok := g.Geocode(context.Background(), "North Pole")
	assert.False(t, ok)
	_, ok = g.ReverseGeocode(context.Background(), 90, 0)
	assert.False(t, ok)
}
