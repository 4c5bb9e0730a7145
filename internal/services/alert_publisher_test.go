package services_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/models"
	"github.com/benmeehan/route-agent/internal/services"
	"github.com/benmeehan/route-agent/pkg/geo"
	"github.com/benmeehan/route-agent/tests/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testEvent(distance float64) deviation.DeviationEvent {
	return deviation.DeviationEvent{
		ID:              "event-1",
		WatcherID:       deviation.DefaultWatcherID,
		SampleID:        "sample-1",
		Time:            time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Position:        geo.NewGeoPoint(0.01, 0.5),
		DistanceMeters:  distance,
		ThresholdMeters: 100,
	}
}

// TestAlertPublisher_PublishDeviation_Success tests that an event is published on the alert topic.
func TestAlertPublisher_PublishDeviation_Success(t *testing.T) {
	// Setup
	mockMQTTClient := new(mocks.MockMQTTClient)
	mockMQTTClient.On("Publish", "alerts/"+testDeviceID, byte(1), false, payloadOf(func(a models.DeviationAlert) bool {
		return a.EventID == "event-1" &&
			a.SampleID == "sample-1" &&
			a.DeviceID == testDeviceID &&
			a.Latitude == 0.5 && a.Longitude == 0.01 &&
			a.DistanceMeters != nil && *a.DistanceMeters == 1112
	})).Return(mocks.NewCompletedToken(nil))

	p := services.NewAlertPublisher("alerts", 1, mockMQTTClient, newDeviceInfo(), nil, zerolog.Nop())

	// Execute
	err := p.PublishDeviation(context.Background(), testEvent(1112))

	// Assert
	assert.NoError(t, err)
	mockMQTTClient.AssertExpectations(t)
}

// TestAlertPublisher_PublishDeviation_InfiniteDistance tests that an event for an empty route still serializes.
func TestAlertPublisher_PublishDeviation_InfiniteDistance(t *testing.T) {
	// Setup
	mockMQTTClient := new(mocks.MockMQTTClient)
	mockMQTTClient.On("Publish", "alerts/"+testDeviceID, byte(1), false, payloadOf(func(a models.DeviationAlert) bool {
		return a.DistanceMeters == nil
	})).Return(mocks.NewCompletedToken(nil))

	p := services.NewAlertPublisher("alerts", 1, mockMQTTClient, newDeviceInfo(), nil, zerolog.Nop())

	// Execute
	err := p.PublishDeviation(context.Background(), testEvent(math.Inf(1)))

	// Assert
	assert.NoError(t, err)
	mockMQTTClient.AssertExpectations(t)
}

// TestAlertPublisher_PublishDeviation_Failure tests that broker errors are returned and counted.
func TestAlertPublisher_PublishDeviation_Failure(t *testing.T) {
	// Setup
	m := metrics.New()
	brokerErr := errors.New("not connected")
	mockMQTTClient := new(mocks.MockMQTTClient)
	mockMQTTClient.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(mocks.NewCompletedToken(brokerErr))

	p := services.NewAlertPublisher("alerts", 1, mockMQTTClient, newDeviceInfo(), m, zerolog.Nop())

	// Execute
	err := p.PublishDeviation(context.Background(), testEvent(500))

	// Assert
	assert.ErrorIs(t, err, brokerErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertFailuresTotal.WithLabelValues("mqtt")))
}
