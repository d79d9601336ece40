package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/santatracker/santa-tracker/internal/metrics"
)

var tracer = otel.Tracer("github.com/santatracker/santa-tracker/geocode")

// ErrBlankAddress is returned internally for empty queries
var ErrBlankAddress = errors.New("address is blank")

// NominatimConfig configures the OpenStreetMap Nominatim client
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Zoom      int // reverse lookup detail, 10 = city
}

// DefaultNominatimConfig returns the public Nominatim endpoint settings
func DefaultNominatimConfig() NominatimConfig {
	return NominatimConfig{
		BaseURL:   "https://nominatim.openstreetmap.org",
		UserAgent: "SantaTracker/1.0",
		Timeout:   10 * time.Second,
		Zoom:      10,
	}
}

// Nominatim is a Geocoder backed by the Nominatim HTTP API
type Nominatim struct {
	baseURL   string
	userAgent string
	zoom      int
	client    *http.Client
	logger    *slog.Logger
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NewNominatim creates a client. Zero fields of config take their defaults.
func NewNominatim(config NominatimConfig) *Nominatim {
	defaults := DefaultNominatimConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Zoom <= 0 {
		config.Zoom = defaults.Zoom
	}

	return &Nominatim{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		userAgent: config.UserAgent,
		zoom:      config.Zoom,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
}

// SetLogger sets the logger used for failed lookups
func (n *Nominatim) SetLogger(logger *slog.Logger) {
	n.logger = logger
}

// Geocode implements Geocoder using the /search endpoint
func (n *Nominatim) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	ctx, span := tracer.Start(ctx, "nominatim.search")
	defer span.End()

	lat, lon, found, err := n.search(ctx, address)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Warn("geocoding failed", "address", address, "error", err)
		metrics.GeocodeRequests.WithLabelValues("forward", outcome(err)).Inc()
		return 0, 0, false
	case !found:
		metrics.GeocodeRequests.WithLabelValues("forward", resultNotFound).Inc()
		return 0, 0, false
	}

	span.SetAttributes(attribute.Float64("geo.lat", lat), attribute.Float64("geo.lon", lon))
	metrics.GeocodeRequests.WithLabelValues("forward", resultFound).Inc()
	return lat, lon, true
}

// ReverseGeocode implements Geocoder using the /reverse endpoint. The name is
// the first comma-separated part of the display name.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (string, bool) {
	ctx, span := tracer.Start(ctx, "nominatim.reverse")
	defer span.End()

	name, err := n.reverse(ctx, lat, lon)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Debug("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		metrics.GeocodeRequests.WithLabelValues("reverse", outcome(err)).Inc()
		return "", false
	}
	if name == "" {
		metrics.GeocodeRequests.WithLabelValues("reverse", resultNotFound).Inc()
		return "", false
	}

	span.SetAttributes(attribute.String("geo.name", name))
	metrics.GeocodeRequests.WithLabelValues("reverse", resultFound).Inc()
	return name, true
}

func (n *Nominatim) search(ctx context.Context, address string) (float64, float64, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, 0, false, ErrBlankAddress
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("q", address)

	var results []searchResult
	if err := n.getJSON(ctx, "/search", query, &results); err != nil {
		return 0, 0, false, err
	}
	if len(results) == 0 {
		return 0, 0, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}
	return lat, lon, true, nil
}

func (n *Nominatim) reverse(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("zoom", strconv.Itoa(n.zoom))

	var result reverseResult
	if err := n.getJSON(ctx, "/reverse", query, &result); err != nil {
		return "", err
	}

	// Oceans and poles come back as {"error": "Unable to geocode"}
	name, _, _ := strings.Cut(result.DisplayName, ",")
	return strings.TrimSpace(name), nil
}

func (n *Nominatim) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("JSON decode failed: %w", err)
	}
	return nil
}
