package service_registry_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/service_registry"
	"github.com/benmeehan/route-agent/internal/utils"
	"github.com/benmeehan/route-agent/pkg/audio"
	"github.com/benmeehan/route-agent/pkg/file"
	"github.com/benmeehan/route-agent/tests/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService records lifecycle calls into a shared log.
type fakeService struct {
	name     string
	log      *[]string
	startErr error
	stopErr  error
}

func (f *fakeService) Start() error {
	*f.log = append(*f.log, "start "+f.name)
	return f.startErr
}

func (f *fakeService) Stop() error {
	*f.log = append(*f.log, "stop "+f.name)
	return f.stopErr
}

func newRegistry() *service_registry.ServiceRegistry {
	return service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), file.NewFileService(), metrics.New(), zerolog.Nop())
}

func newDeviceInfo() *mocks.MockDeviceInfo {
	deviceInfo := new(mocks.MockDeviceInfo)
	deviceInfo.On("GetDeviceID").Return("test-device-id")
	return deviceInfo
}

func TestServiceRegistry_StartStopOrder(t *testing.T) {
	var calls []string
	sr := newRegistry()
	sr.RegisterService("a", &fakeService{name: "a", log: &calls})
	sr.RegisterService("b", &fakeService{name: "b", log: &calls})
	sr.RegisterService("a", &fakeService{name: "duplicate", log: &calls})

	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	assert.Equal(t, []string{"a", "b"}, sr.Services())
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, calls)
}

func TestServiceRegistry_StartFailureStopsStarted(t *testing.T) {
	var calls []string
	sr := newRegistry()
	sr.RegisterService("a", &fakeService{name: "a", log: &calls})
	sr.RegisterService("b", &fakeService{name: "b", log: &calls})
	sr.RegisterService("c", &fakeService{name: "c", log: &calls, startErr: errors.New("boom")})
	sr.RegisterService("d", &fakeService{name: "d", log: &calls})

	err := sr.StartServices()

	assert.EqualError(t, err, "failed to start c: boom")
	assert.Equal(t, []string{"start a", "start b", "start c", "stop b", "stop a"}, calls)
}

func TestServiceRegistry_StopCollectsErrors(t *testing.T) {
	var calls []string
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	sr := newRegistry()
	sr.RegisterService("a", &fakeService{name: "a", log: &calls, stopErr: errA})
	sr.RegisterService("b", &fakeService{name: "b", log: &calls, stopErr: errB})

	err := sr.StopServices()

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, []string{"stop b", "stop a"}, calls)
}

func TestRegisterServices_RouteWatchDisabled(t *testing.T) {
	var config utils.Config
	config.MQTT.Broker = "tcp://localhost:1883"
	config.Services.Metrics.Enabled = true
	config.Services.RouteConfig.Enabled = true
	config.Services.RouteConfig.Topic = "routes"
	config.Services.Status.Enabled = true
	config.Services.Status.Topic = "status"
	config.ApplyDefaults()

	sr := newRegistry()
	require.NoError(t, sr.RegisterServices(&config, newDeviceInfo()))

	assert.Equal(t, []string{"metrics", "route_config", "status"}, sr.Services())
	require.NotNil(t, sr.Watchers())
	_, ok := sr.Watchers().Get(deviation.DefaultWatcherID)
	assert.True(t, ok, "default watcher exists before any route arrives")
}

func TestRegisterServices_RouteWatchEnabled(t *testing.T) {
	soundFile := filepath.Join(t.TempDir(), "off-route.wav")
	require.NoError(t, os.WriteFile(soundFile, []byte("RIFF"), 0o600))

	var config utils.Config
	config.MQTT.Broker = "tcp://localhost:1883"
	config.Services.RouteWatch.Enabled = true
	config.Services.RouteWatch.GPSDevicePort = "/dev/ttyUSB0"
	config.Services.RouteWatch.SoundFile = soundFile
	config.Services.RouteWatch.AlertTopic = "alerts"
	config.Services.RouteWatch.DistanceFilter = 5
	config.ApplyDefaults()

	sr := newRegistry()
	require.NoError(t, sr.RegisterServices(&config, newDeviceInfo()))

	assert.Equal(t, []string{"alert_dispatcher", "route_watch"}, sr.Services())
}

func TestRegisterServices_MissingSoundFile(t *testing.T) {
	var config utils.Config
	config.MQTT.Broker = "tcp://localhost:1883"
	config.Services.RouteWatch.Enabled = true
	config.Services.RouteWatch.GPSDevicePort = "/dev/ttyUSB0"
	config.ApplyDefaults()

	sr := newRegistry()
	err := sr.RegisterServices(&config, newDeviceInfo())

	assert.ErrorIs(t, err, audio.ErrSoundFileRequired)
	assert.Empty(t, sr.Services())
}
