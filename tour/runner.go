package tour

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/santatracker/santa-tracker/internal/metrics"
)

// Runner drives a Simulator at a fixed cadence and fans each update out to
// an NMEA writer, a GPX recorder and registered callbacks.
type Runner struct {
	mu          sync.RWMutex
	sim         *Simulator
	config      RunnerConfig
	destination *Coordinate
	nmeaWriter  io.Writer
	gpxRecorder *GPXRecorder
	callbacks   []func(LocationUpdate)
	logger      *slog.Logger
	// tick bookkeeping
	ticks      int
	lastUpdate *LocationUpdate
	lastLegs   int
	// Control fields
	running   bool
	startTime time.Time
	cancel    context.CancelFunc
	ticker    *time.Ticker
	done      chan struct{}
}

// NewRunner creates a runner for sim
func NewRunner(sim *Simulator, config RunnerConfig) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		sim:       sim,
		config:    config,
		logger:    slog.Default(),
		callbacks: make([]func(LocationUpdate), 0),
	}, nil
}

// Simulator returns the simulator driven by this runner
func (r *Runner) Simulator() *Simulator {
	return r.sim
}

// SetLogger sets the logger used for diagnostics
func (r *Runner) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// SetNMEAWriter sets the writer for NMEA output
func (r *Runner) SetNMEAWriter(writer io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nmeaWriter = writer
}

// SetGPXRecorder sets the recorder that receives every emitted position
func (r *Runner) SetGPXRecorder(recorder *GPXRecorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gpxRecorder = recorder
}

// AddCallback adds a callback function that will be called with each location update
func (r *Runner) AddCallback(callback func(LocationUpdate)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// SetDestination sets the point distances are measured to
func (r *Runner) SetDestination(lat, lon float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destination = &Coordinate{Latitude: lat, Longitude: lon}
}

// ClearDestination removes the destination
func (r *Runner) ClearDestination() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destination = nil
}

// Destination returns the current destination, or nil
func (r *Runner) Destination() *Coordinate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.destination == nil {
		return nil
	}
	d := *r.destination
	return &d
}

// Start starts ticking the simulator
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrRunnerAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.ticker = time.NewTicker(r.config.OutputRate)
	r.done = make(chan struct{})
	r.running = true
	r.startTime = time.Now()

	r.logger.Info("tour runner started", "tour", r.sim.ID(), "rate", r.config.OutputRate)
	go r.run(ctx, r.ticker, r.done)
	return nil
}

// Stop stops the runner. In-flight geocoding lookups are cancelled.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrRunnerNotRunning
	}

	r.cancel()
	r.ticker.Stop()
	r.running = false

	if r.gpxRecorder != nil {
		if err := r.gpxRecorder.Close(); err != nil {
			r.logger.Warn("closing GPX recorder failed", "error", err)
		}
	}

	r.logger.Info("tour runner stopped", "tour", r.sim.ID(), "ticks", r.ticks)
	return nil
}

// IsRunning returns whether the runner is currently running
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Done returns a channel closed when the current run loop exits.
// It is nil until Start has been called.
func (r *Runner) Done() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done
}

// Status returns the current runner status
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var elapsed time.Duration
	if r.running {
		elapsed = time.Since(r.startTime)
	}

	status := Status{
		ID:          r.sim.ID(),
		Running:     r.running,
		StartTime:   r.startTime,
		ElapsedTime: elapsed,
		Ticks:       r.ticks,
		State:       r.sim.State(),
		Config:      r.config,
	}
	if r.lastUpdate != nil {
		u := *r.lastUpdate
		status.LastUpdate = &u
	}
	if r.destination != nil {
		d := *r.destination
		status.Destination = &d
	}
	return status
}

// run is the main scheduling loop
func (r *Runner) run(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	defer close(done)

	var durationChan <-chan time.Time
	if r.config.Duration > 0 {
		durationTimer := time.NewTimer(r.config.Duration)
		durationChan = durationTimer.C
		defer durationTimer.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		case <-durationChan:
			r.Stop()
			return
		}
	}
}

// Tick advances the simulator once and publishes the result
func (r *Runner) Tick(ctx context.Context) LocationUpdate {
	update := r.sim.Advance(ctx, r.Destination())

	r.mu.Lock()
	r.ticks++
	r.lastUpdate = &update
	state := r.sim.State()
	legs := state.LegsCompleted - r.lastLegs
	r.lastLegs = state.LegsCompleted
	nmeaWriter := r.nmeaWriter
	recorder := r.gpxRecorder
	callbacks := make([]func(LocationUpdate), len(r.callbacks))
	copy(callbacks, r.callbacks)
	logger := r.logger
	r.mu.Unlock()

	id := r.sim.ID()
	metrics.TicksTotal.WithLabelValues(id).Inc()
	metrics.SpeedKmh.WithLabelValues(id).Set(update.Speed)
	if legs > 0 {
		metrics.LegsCompleted.WithLabelValues(id).Add(float64(legs))
	}
	if update.DistanceFromUser != nil {
		metrics.DistanceFromUserKm.WithLabelValues(id).Set(*update.DistanceFromUser)
	}

	if nmeaWriter != nil {
		for _, sentence := range NMEASentences(update) {
			if _, err := fmt.Fprint(nmeaWriter, sentence); err != nil {
				logger.Warn("writing NMEA sentence failed", "error", err)
				break
			}
		}
	}

	if recorder != nil {
		recorder.AddUpdate(update)
		if recorder.PointCount()%r.config.GPXFlush == 0 {
			if err := recorder.WriteToFile(); err != nil {
				logger.Warn("writing GPX file failed", "error", err)
			}
		}
	}

	for _, callback := range callbacks {
		go callback(update) // Call async to avoid blocking
	}
	return update
}
