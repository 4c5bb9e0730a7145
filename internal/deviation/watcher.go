package deviation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Watcher turns a stream of position samples into at most one alert per off-route
// episode. Route swaps and sample processing are serialised by mu; the audio trigger
// and event sink are called after the lock is released, so a slow or failing
// collaborator never holds up a route update or touches hysteresis state.
type Watcher struct {
	id               string
	defaultThreshold float64

	trigger AudioTrigger
	sink    EventSink
	logger  zerolog.Logger

	mu         sync.Mutex
	detector   *Detector
	hysteresis *Hysteresis
	armed      bool
	last       *SampleResult
	updatedAt  time.Time
}

// NewWatcher creates a disarmed watcher with an empty route. trigger and sink may be nil.
func NewWatcher(id string, defaultThreshold float64, trigger AudioTrigger, sink EventSink, logger zerolog.Logger) *Watcher {
	if sink == nil {
		sink = NopEventSink{}
	}
	return &Watcher{
		id:               id,
		defaultThreshold: defaultThreshold,
		trigger:          trigger,
		sink:             sink,
		logger:           logger.With().Str("watcher_id", id).Logger(),
		detector:         NewDetector(nil, defaultThreshold),
		hysteresis:       NewHysteresis(),
	}
}

// ID returns the watcher identifier.
func (w *Watcher) ID() string {
	return w.id
}

// SetRoute validates cfg and, only if it is valid, replaces the route and threshold
// and resets the hysteresis to OnRoute. On error the previous route stays active.
func (w *Watcher) SetRoute(cfg RouteConfiguration) error {
	points, threshold, err := cfg.Resolve(w.defaultThreshold)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Rejected route configuration")
		return err
	}
	detector := NewDetector(points, threshold)

	w.mu.Lock()
	w.detector = detector
	w.hysteresis.Reset()
	w.armed = true
	w.updatedAt = time.Now()
	w.mu.Unlock()

	w.logger.Info().
		Int("points", len(points)).
		Float64("threshold_m", threshold).
		Msg("Route updated")
	return nil
}

// OnSample measures the sample against the route, advances the hysteresis and, on the
// on-route to off-route edge, plays the alert and emits a DeviationEvent.
func (w *Watcher) OnSample(ctx context.Context, sample PositionSample) SampleResult {
	w.mu.Lock()
	distance, exceeds := w.detector.Measure(sample.Point)
	result := SampleResult{
		WatcherID:       w.id,
		SampleID:        sample.ID,
		Position:        sample.Point,
		DistanceMeters:  distance,
		ThresholdMeters: w.detector.Threshold(),
		Exceeds:         exceeds,
		Armed:           w.armed,
	}
	if w.armed {
		result.Alert = w.hysteresis.Update(exceeds)
	}
	result.State = w.hysteresis.State()
	last := result
	w.last = &last
	w.mu.Unlock()

	if result.Alert == Triggered {
		w.logger.Warn().
			Str("sample_id", sample.ID).
			Float64("distance_m", distance).
			Float64("threshold_m", result.ThresholdMeters).
			Msg("Position left the planned route")

		w.playAlert(ctx)
		w.emitEvent(ctx, DeviationEvent{
			ID:              uuid.NewString(),
			WatcherID:       w.id,
			SampleID:        sample.ID,
			Time:            sampleTime(sample),
			Position:        sample.Point,
			DistanceMeters:  distance,
			ThresholdMeters: result.ThresholdMeters,
		})
	}

	return result
}

// WatcherStatus is a point-in-time view of a watcher.
type WatcherStatus struct {
	WatcherID       string
	Armed           bool
	RouteLength     int
	ThresholdMeters float64
	State           State
	RouteUpdatedAt  time.Time
	Last            *SampleResult
}

// Status returns a copy of the watcher's current state.
func (w *Watcher) Status() WatcherStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := WatcherStatus{
		WatcherID:       w.id,
		Armed:           w.armed,
		RouteLength:     w.detector.RouteLength(),
		ThresholdMeters: w.detector.Threshold(),
		State:           w.hysteresis.State(),
		RouteUpdatedAt:  w.updatedAt,
	}
	if w.last != nil {
		last := *w.last
		status.Last = &last
	}
	return status
}

func (w *Watcher) playAlert(ctx context.Context) {
	if w.trigger == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Audio trigger panicked")
		}
	}()
	if err := w.trigger.Play(ctx); err != nil {
		w.logger.Error().Err(err).Msg("Failed to play off-route alert")
	}
}

func (w *Watcher) emitEvent(ctx context.Context, event DeviationEvent) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Deviation event sink panicked")
		}
	}()
	if err := w.sink.PublishDeviation(ctx, event); err != nil {
		w.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to publish deviation event")
	}
}

func sampleTime(sample PositionSample) time.Time {
	if sample.Time.IsZero() {
		return time.Now()
	}
	return sample.Time
}
