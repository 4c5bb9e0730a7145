package services_test

import (
	"encoding/json"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/tests/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

const testDeviceID = "test-device-id"

func newDeviceInfo() *mocks.MockDeviceInfo {
	deviceInfo := new(mocks.MockDeviceInfo)
	deviceInfo.On("GetDeviceID").Return(testDeviceID)
	return deviceInfo
}

func newWatchers(trigger deviation.AudioTrigger, sink deviation.EventSink) *deviation.Registry {
	return deviation.NewRegistry(func(id string) *deviation.Watcher {
		return deviation.NewWatcher(id, deviation.DefaultThresholdMeters, trigger, sink, zerolog.Nop())
	}, zerolog.Nop())
}

// meridianRoute runs north along the prime meridian from the equator to 1°N.
func meridianRoute() deviation.RouteConfiguration {
	distance := 100.0
	return deviation.RouteConfiguration{
		Coordinates:     [][]float64{{0, 0}, {0, 1}},
		ThresholdMeters: &distance,
	}
}

// payloadOf matches a published JSON payload decoded into T.
func payloadOf[T any](check func(T) bool) interface{} {
	return mock.MatchedBy(func(payload []byte) bool {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return false
		}
		return check(v)
	})
}
