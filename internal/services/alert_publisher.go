package services

import (
	"context"
	"fmt"
	"time"

	"github.com/benmeehan/route-agent/internal/constants"
	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/models"
	"github.com/benmeehan/route-agent/pkg/identity"
	"github.com/benmeehan/route-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// AlertPublisher sends deviation events to the alert topic. It implements
// deviation.EventSink.
type AlertPublisher struct {
	pubTopic   string
	qos        int
	timeout    time.Duration
	mqttClient mqtt.MQTTClient
	deviceInfo identity.DeviceInfoInterface
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewAlertPublisher creates an AlertPublisher.
func NewAlertPublisher(pubTopic string, qos int, mqttClient mqtt.MQTTClient, deviceInfo identity.DeviceInfoInterface,
	m *metrics.Metrics, logger zerolog.Logger) *AlertPublisher {
	return &AlertPublisher{
		pubTopic:   pubTopic,
		qos:        qos,
		timeout:    constants.DefaultPublishTimeout,
		mqttClient: mqttClient,
		deviceInfo: deviceInfo,
		metrics:    m,
		logger:     logger,
	}
}

// PublishDeviation publishes event and waits for the broker to acknowledge it.
func (p *AlertPublisher) PublishDeviation(_ context.Context, event deviation.DeviationEvent) error {
	message := models.DeviationAlert{
		EventID:         event.ID,
		DeviceID:        p.deviceInfo.GetDeviceID(),
		WatcherID:       event.WatcherID,
		SampleID:        event.SampleID,
		Timestamp:       event.Time,
		Latitude:        event.Position.Latitude,
		Longitude:       event.Position.Longitude,
		DistanceMeters:  models.Meters(event.DistanceMeters),
		ThresholdMeters: event.ThresholdMeters,
	}

	topic := p.pubTopic + "/" + p.deviceInfo.GetDeviceID()
	if err := mqtt.PublishJSON(p.mqttClient, topic, byte(p.qos), false, message, p.timeout); err != nil {
		p.metrics.ObserveAlertFailure("mqtt")
		return fmt.Errorf("failed to publish deviation alert: %w", err)
	}

	p.logger.Info().
		Str("topic", topic).
		Str("event_id", event.ID).
		Str("watcher_id", event.WatcherID).
		Msg("Deviation alert published")
	return nil
}
