package tour

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// GPX represents the root GPX document structure
type GPX struct {
	XMLName   xml.Name      `xml:"gpx"`
	Version   string        `xml:"version,attr"`
	Creator   string        `xml:"creator,attr"`
	Xmlns     string        `xml:"xmlns,attr"`
	Waypoints []GPXWaypoint `xml:"wpt"`
	Routes    []Route       `xml:"rte"`
	Track     Track         `xml:"trk"`
}

// GPXWaypoint is a standalone <wpt> or a route <rtept>
type GPXWaypoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name,omitempty"`
}

// Route represents a GPX route
type Route struct {
	Name        string        `xml:"name"`
	RoutePoints []GPXWaypoint `xml:"rtept"`
}

// Track represents a GPX track
type Track struct {
	Name         string       `xml:"name"`
	TrackSegment TrackSegment `xml:"trkseg"`
}

// TrackSegment represents a segment of a GPX track
type TrackSegment struct {
	TrackPoints []TrackPoint `xml:"trkpt"`
}

// TrackPoint represents a recorded position
type TrackPoint struct {
	Lat  float64   `xml:"lat,attr"`
	Lon  float64   `xml:"lon,attr"`
	Time time.Time `xml:"time"`
	Name string    `xml:"name,omitempty"`
}

// ReadWaypointsGPX loads a tour from a GPX file. Standalone waypoints win
// over the first route; unnamed points are called WP1, WP2, ...
func ReadWaypointsGPX(filename string) ([]Waypoint, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPX file %s: %w", filename, err)
	}
	defer file.Close()

	var gpx GPX
	if err := xml.NewDecoder(file).Decode(&gpx); err != nil {
		return nil, fmt.Errorf("failed to parse GPX file %s: %w", filename, err)
	}

	points := gpx.Waypoints
	if len(points) == 0 && len(gpx.Routes) > 0 {
		points = gpx.Routes[0].RoutePoints
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no waypoints or route points found in GPX file %s: %w", filename, ErrNoWaypoints)
	}

	waypoints := make([]Waypoint, len(points))
	for i, p := range points {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = fmt.Sprintf("WP%d", i+1)
		}
		waypoints[i] = Waypoint{Name: name, Latitude: p.Lat, Longitude: p.Lon}
	}

	if err := ValidateWaypoints(waypoints); err != nil {
		return nil, fmt.Errorf("GPX file %s: %w", filename, err)
	}
	return waypoints, nil
}

// GPXRecorder records emitted positions as a GPX track
type GPXRecorder struct {
	mu       sync.Mutex
	filename string
	gpx      *GPX
	file     *os.File
}

// NewGPXRecorder creates the GPX file and an empty track
func NewGPXRecorder(filename string) (*GPXRecorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create GPX file %s: %w", filename, err)
	}

	gpx := &GPX{
		Version: "1.1",
		Creator: "santa-tracker",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Track: Track{
			Name: "Santa's Flight",
			TrackSegment: TrackSegment{
				TrackPoints: []TrackPoint{},
			},
		},
	}

	return &GPXRecorder{
		filename: filename,
		gpx:      gpx,
		file:     file,
	}, nil
}

// Filename returns the path of the recorded file
func (w *GPXRecorder) Filename() string {
	return w.filename
}

// AddUpdate appends a location update to the track
func (w *GPXRecorder) AddUpdate(update LocationUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gpx.Track.TrackSegment.TrackPoints = append(w.gpx.Track.TrackSegment.TrackPoints, TrackPoint{
		Lat:  update.Latitude,
		Lon:  update.Longitude,
		Time: update.Timestamp.UTC(),
		Name: update.LocationName,
	})
}

// PointCount returns the number of track points currently stored
func (w *GPXRecorder) PointCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.gpx.Track.TrackSegment.TrackPoints)
}

// WriteToFile rewrites the file with the current track
func (w *GPXRecorder) WriteToFile() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeLocked()
}

func (w *GPXRecorder) writeLocked() error {
	if w.file == nil {
		return fmt.Errorf("GPX file %s is closed", w.filename)
	}

	if _, err := w.file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek to beginning of file: %w", err)
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}
	if _, err := w.file.WriteString(xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w.file)
	encoder.Indent("", "  ")
	if err := encoder.Encode(w.gpx); err != nil {
		return fmt.Errorf("failed to encode GPX data: %w", err)
	}

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

// Close writes the final track and closes the file. Closing twice is a no-op.
func (w *GPXRecorder) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.writeLocked()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}
