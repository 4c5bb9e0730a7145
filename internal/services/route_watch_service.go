package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benmeehan/route-agent/internal/constants"
	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/models"
	"github.com/benmeehan/route-agent/pkg/geo"
	"github.com/benmeehan/route-agent/pkg/identity"
	"github.com/benmeehan/route-agent/pkg/location"
	"github.com/benmeehan/route-agent/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RouteWatchService feeds fixes from a location source to every registered watcher
// and republishes each evaluated sample on the position topic.
type RouteWatchService struct {
	// Configuration fields
	positionTopic  string
	qos            int
	publishTimeout time.Duration
	retryDelay     time.Duration

	// Dependencies
	source     location.Source
	watchers   *deviation.Registry
	mqttClient mqtt.MQTTClient
	deviceInfo identity.DeviceInfoInterface
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	// Internal state management
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	delivered atomic.Bool
}

// NewRouteWatchService creates a RouteWatchService. An empty positionTopic disables
// position publishing.
func NewRouteWatchService(positionTopic string, qos int, source location.Source, watchers *deviation.Registry,
	mqttClient mqtt.MQTTClient, deviceInfo identity.DeviceInfoInterface, m *metrics.Metrics, logger zerolog.Logger) *RouteWatchService {
	return &RouteWatchService{
		positionTopic:  positionTopic,
		qos:            qos,
		publishTimeout: constants.DefaultPublishTimeout,
		retryDelay:     time.Second,
		source:         source,
		watchers:       watchers,
		mqttClient:     mqttClient,
		deviceInfo:     deviceInfo,
		metrics:        m,
		logger:         logger,
	}
}

// Start begins watching the location source.
func (s *RouteWatchService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		s.logger.Warn().Msg("RouteWatchService is already running")
		return errors.New("route watch service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func(ctx context.Context) {
		defer s.wg.Done()
		s.runSource(ctx)
	}(s.ctx)

	s.logger.Info().
		Str("position_topic", s.positionTopic).
		Int("qos", s.qos).
		Int("watchers", s.watchers.Count()).
		Msg("RouteWatchService started")
	return nil
}

// Stop cancels the location source and waits for the current sample to finish.
func (s *RouteWatchService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		s.logger.Warn().Msg("RouteWatchService is not running")
		return errors.New("route watch service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("RouteWatchService stopped")
	return nil
}

// runSource keeps the source running until ctx is cancelled. A source that stops is
// restarted with exponential backoff; the backoff resets once a fix is delivered.
func (s *RouteWatchService) runSource(ctx context.Context) {
	delay := s.retryDelay
	for {
		s.delivered.Store(false)
		err := s.source.Watch(ctx, func(loc location.Location) {
			s.delivered.Store(true)
			s.handleLocation(ctx, loc)
		})
		if ctx.Err() != nil {
			s.logger.Info().Msg("RouteWatchService is stopping")
			return
		}

		if s.delivered.Load() {
			delay = s.retryDelay
		}
		s.logger.Warn().Err(err).Dur("retry_in", delay).Msg("Location source stopped, restarting")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		delay = min(delay*2, constants.MaxSourceBackoff)
	}
}

// HandleLocation evaluates one fix against every watcher.
func (s *RouteWatchService) HandleLocation(loc location.Location) []deviation.SampleResult {
	return s.handleLocation(context.Background(), loc)
}

func (s *RouteWatchService) handleLocation(ctx context.Context, loc location.Location) []deviation.SampleResult {
	point := geo.NewGeoPoint(loc.Longitude, loc.Latitude)
	if !point.Valid() {
		s.logger.Warn().
			Float64("latitude", loc.Latitude).
			Float64("longitude", loc.Longitude).
			Msg("Ignoring fix with out-of-range coordinates")
		return nil
	}

	sample := deviation.PositionSample{
		ID:       uuid.NewString(),
		Time:     loc.Time,
		Point:    point,
		Accuracy: loc.Accuracy,
	}
	if sample.Time.IsZero() {
		sample.Time = time.Now()
	}

	results := s.watchers.Dispatch(ctx, sample)
	for _, result := range results {
		s.metrics.ObserveSample(result)
		if s.positionTopic == "" {
			continue
		}
		if err := s.publishPosition(loc, sample, result); err != nil {
			s.logger.Error().
				Err(err).
				Str("watcher_id", result.WatcherID).
				Msg("Failed to publish position")
		}
	}
	return results
}

func (s *RouteWatchService) publishPosition(loc location.Location, sample deviation.PositionSample, result deviation.SampleResult) error {
	message := models.Position{
		DeviceID:        s.deviceInfo.GetDeviceID(),
		WatcherID:       result.WatcherID,
		SampleID:        sample.ID,
		Timestamp:       sample.Time,
		Latitude:        sample.Point.Latitude,
		Longitude:       sample.Point.Longitude,
		Accuracy:        sample.Accuracy,
		Altitude:        loc.Altitude,
		Speed:           loc.Speed,
		Bearing:         loc.Bearing,
		DistanceMeters:  models.Meters(result.DistanceMeters),
		ThresholdMeters: result.ThresholdMeters,
		State:           result.State.String(),
		Armed:           result.Armed,
	}

	topic := s.positionTopic + "/" + s.deviceInfo.GetDeviceID()
	if err := mqtt.PublishJSON(s.mqttClient, topic, byte(s.qos), false, message, s.publishTimeout); err != nil {
		return err
	}

	s.logger.Debug().
		Str("topic", topic).
		Str("sample_id", sample.ID).
		Str("state", message.State).
		Msg("Position published")
	return nil
}
