package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/santatracker/santa-tracker/geocode"
	"github.com/santatracker/santa-tracker/internal/metrics"
	"github.com/santatracker/santa-tracker/tour"
)

// WebServer exposes a tour runner over HTTP and pushes every location update
// to connected websocket clients.
type WebServer struct {
	runner    *tour.Runner
	geocoder  geocode.Geocoder
	upgrader  websocket.Upgrader
	mu        sync.Mutex
	clients   map[*websocket.Conn]string
	broadcast chan tour.LocationUpdate
	staticDir string
	logger    *slog.Logger
}

// Display holds the human-readable renderings shown next to the map
type Display struct {
	Location string `json:"location"`
	Speed    string `json:"speed"`
	ETA      string `json:"eta"`
}

type locationMessage struct {
	tour.LocationUpdate
	Display Display `json:"display"`
}

type destinationRequest struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// NewWebServer creates a server for runner. geocoder resolves destination
// addresses; nil disables address lookups.
func NewWebServer(runner *tour.Runner, geocoder geocode.Geocoder) *WebServer {
	if geocoder == nil {
		geocoder = geocode.Noop{}
	}
	ws := &WebServer{
		runner:   runner,
		geocoder: geocoder,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan tour.LocationUpdate, 16),
		logger:    slog.Default(),
	}

	runner.AddCallback(func(update tour.LocationUpdate) {
		select {
		case ws.broadcast <- update:
		default:
			// Channel full, skip this update
		}
	})
	return ws
}

// SetStaticDir serves files from dir for every path not handled by the API
func (ws *WebServer) SetStaticDir(dir string) {
	ws.staticDir = dir
}

// SetLogger sets the logger used for request diagnostics
func (ws *WebServer) SetLogger(logger *slog.Logger) {
	ws.logger = logger
}

// Router returns the instrumented HTTP handler
func (ws *WebServer) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/start", ws.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/stop", ws.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/status", ws.handleGetStatus).Methods(http.MethodGet)
	api.HandleFunc("/waypoints", ws.handleGetWaypoints).Methods(http.MethodGet)
	api.HandleFunc("/destination", ws.handleSetDestination).Methods(http.MethodPost)
	api.HandleFunc("/destination", ws.handleClearDestination).Methods(http.MethodDelete)
	api.HandleFunc("/ws", ws.handleWebSocket)

	r.Handle("/metrics", promhttp.Handler())

	r.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if ws.staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(ws.staticDir)))
	}

	return otelhttp.NewHandler(r, "santa-tracker")
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (ws *WebServer) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      ws.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go ws.broadcastToClients(ctx)

	errCh := make(chan error, 1)
	go func() {
		ws.logger.Info("web server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ws.closeClients()
		return server.Shutdown(shutdownCtx)
	}
}

// ClientCount returns the number of connected websocket clients
func (ws *WebServer) ClientCount() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.clients)
}

func (ws *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Send current status before the broadcaster can write to this conn
	if err := conn.WriteJSON(map[string]interface{}{
		"type": "status",
		"data": ws.runner.Status(),
	}); err != nil {
		ws.logger.Warn("sending status failed", "error", err)
		return
	}

	id := ws.addClient(conn)
	defer ws.removeClient(conn)

	// Drain client messages until the connection goes away
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			ws.logger.Debug("websocket read ended", "client", id, "error", err)
			return
		}
		ws.logger.Debug("websocket message received", "client", id, "message", msg)
	}
}

func (ws *WebServer) addClient(conn *websocket.Conn) string {
	id := uuid.NewString()
	ws.mu.Lock()
	ws.clients[conn] = id
	count := len(ws.clients)
	ws.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	ws.logger.Info("client connected", "client", id, "clients", count)
	return id
}

func (ws *WebServer) removeClient(conn *websocket.Conn) {
	ws.mu.Lock()
	id, ok := ws.clients[conn]
	delete(ws.clients, conn)
	count := len(ws.clients)
	ws.mu.Unlock()

	if ok {
		metrics.WebSocketClients.Set(float64(count))
		ws.logger.Info("client disconnected", "client", id, "clients", count)
	}
}

func (ws *WebServer) closeClients() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for conn := range ws.clients {
		conn.Close()
	}
}

func (ws *WebServer) broadcastToClients(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-ws.broadcast:
			message := map[string]interface{}{
				"type": "location",
				"data": newLocationMessage(update),
			}

			ws.mu.Lock()
			for client, id := range ws.clients {
				if err := client.WriteJSON(message); err != nil {
					ws.logger.Warn("websocket write failed", "client", id, "error", err)
					client.Close()
					delete(ws.clients, client)
				}
			}
			count := len(ws.clients)
			ws.mu.Unlock()
			metrics.WebSocketClients.Set(float64(count))
		}
	}
}

func newLocationMessage(update tour.LocationUpdate) locationMessage {
	eta := "--:--"
	if update.DistanceFromUser != nil {
		eta = tour.FormatETA(update.ETA())
	}
	return locationMessage{
		LocationUpdate: update,
		Display: Display{
			Location: tour.FormatLocation(update),
			Speed:    tour.FormatSpeed(update.Speed),
			ETA:      eta,
		},
	}
}

func (ws *WebServer) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := ws.runner.Start(); err != nil {
		if errors.Is(err, tour.ErrRunnerAlreadyRunning) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "already running"})
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start tracker: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (ws *WebServer) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := ws.runner.Stop(); err != nil && !errors.Is(err, tour.ErrRunnerNotRunning) {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to stop tracker: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (ws *WebServer) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ws.runner.Status())
}

func (ws *WebServer) handleGetWaypoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ws.runner.Simulator().Waypoints())
}

func (ws *WebServer) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	var req destinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	var lat, lon float64
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		lat, lon = *req.Latitude, *req.Longitude
		if math.IsNaN(lat) || lat < -90 || lat > 90 || math.IsNaN(lon) || lon < -180 || lon > 180 {
			writeError(w, http.StatusBadRequest, "Coordinates out of range")
			return
		}
	case req.Address != "":
		var ok bool
		lat, lon, ok = ws.geocoder.Geocode(r.Context(), req.Address)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Address not found: %s", req.Address))
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "Either address or latitude and longitude are required")
		return
	}

	ws.runner.SetDestination(lat, lon)
	ws.logger.Info("destination set", "lat", lat, "lon", lon, "address", req.Address)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "updated",
		"destination": tour.Coordinate{Latitude: lat, Longitude: lon},
	})
}

func (ws *WebServer) handleClearDestination(w http.ResponseWriter, r *http.Request) {
	ws.runner.ClearDestination()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
