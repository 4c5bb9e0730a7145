package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/route-agent/internal/constants"
	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/models"
	"github.com/benmeehan/route-agent/pkg/identity"
	"github.com/benmeehan/route-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// StatusService periodically publishes the state of every watcher.
type StatusService struct {
	PubTopic   string
	Interval   time.Duration
	QOS        int
	DeviceInfo identity.DeviceInfoInterface
	Watchers   *deviation.Registry
	MqttClient mqtt.MQTTClient
	Logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusService initializes a new StatusService.
func NewStatusService(pubTopic string, interval time.Duration, qos int, deviceInfo identity.DeviceInfoInterface,
	watchers *deviation.Registry, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *StatusService {

	return &StatusService{
		PubTopic:   pubTopic,
		Interval:   interval,
		QOS:        qos,
		DeviceInfo: deviceInfo,
		Watchers:   watchers,
		MqttClient: mqttClient,
		Logger:     logger,
	}
}

// Start launches the status loop in a separate goroutine.
func (s *StatusService) Start() error {
	if s.ctx != nil {
		s.Logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatusLoop()
	}()

	s.Logger.Info().Str("topic", s.PubTopic).Dur("interval", s.Interval).Msg("StatusService started successfully")
	return nil
}

// Stop gracefully stops the status service.
func (s *StatusService) Stop() error {
	if s.ctx == nil {
		s.Logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.Logger.Info().Msg("StatusService stopped successfully")
	return nil
}

// runStatusLoop sends a status report at the configured interval.
func (s *StatusService) runStatusLoop() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.PublishStatus(); err != nil {
				s.Logger.Error().Err(err).Msg("Failed to publish status message")
			} else {
				s.Logger.Debug().Msg("Status published successfully")
			}

		case <-s.ctx.Done():
			s.Logger.Info().Msg("StatusService stopping gracefully")
			return
		}
	}
}

// PublishStatus publishes one status report.
func (s *StatusService) PublishStatus() error {
	statusMessage := BuildStatus(s.DeviceInfo.GetDeviceID(), s.Watchers.Statuses())
	topic := s.PubTopic + "/" + statusMessage.DeviceID
	return mqtt.PublishJSON(s.MqttClient, topic, byte(s.QOS), false, statusMessage, constants.DefaultPublishTimeout)
}

// BuildStatus converts watcher statuses to the wire model.
func BuildStatus(deviceID string, statuses []deviation.WatcherStatus) models.Status {
	message := models.Status{
		DeviceID:  deviceID,
		Timestamp: time.Now(),
		Watchers:  make([]models.WatcherStatus, 0, len(statuses)),
	}
	for _, st := range statuses {
		ws := models.WatcherStatus{
			WatcherID:       st.WatcherID,
			Armed:           st.Armed,
			State:           st.State.String(),
			RouteLength:     st.RouteLength,
			ThresholdMeters: st.ThresholdMeters,
		}
		if !st.RouteUpdatedAt.IsZero() {
			updated := st.RouteUpdatedAt
			ws.RouteUpdatedAt = &updated
		}
		if st.Last != nil {
			ws.LastSampleID = st.Last.SampleID
			ws.LastDistanceMeters = models.Meters(st.Last.DistanceMeters)
		}
		message.Watchers = append(message.Watchers, ws)
	}
	return message
}
