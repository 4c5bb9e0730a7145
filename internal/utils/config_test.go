package utils_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benmeehan/route-agent/internal/utils"
	"github.com/benmeehan/route-agent/pkg/audio"
	"github.com/benmeehan/route-agent/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker: tcp://localhost:1883
  client_id: route-agent
services:
  route_watch:
    enabled: true
    gps_device_port: /dev/ttyUSB0
    sound_file: /usr/share/sounds/off-route.wav
  status:
    enabled: true
    topic: devices/status
    interval: 15s
`)

	config, err := utils.LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	rw := config.Services.RouteWatch
	assert.Equal(t, "sensor", rw.Source)
	assert.Equal(t, 9600, rw.GPSBaudRate)
	assert.Equal(t, 50.0, rw.DefaultThreshold)
	assert.Equal(t, 1, rw.QOS)
	assert.Equal(t, audio.DefaultPlayer, rw.Player)
	assert.Equal(t, 10*time.Second, rw.PlaybackTimeout)
	assert.Equal(t, 4, rw.AudioQueueSize)
	assert.Equal(t, 15*time.Second, config.Services.Status.Interval)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, ":9100", config.Services.Metrics.ListenAddress)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := utils.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), file.NewFileService())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing broker",
			content: "services: {}\n",
			wantErr: "mqtt.broker is required",
		},
		{
			name: "unknown source",
			content: `
mqtt: {broker: tcp://localhost:1883}
services:
  route_watch: {enabled: true, source: bluetooth, sound_file: a.wav}
`,
			wantErr: `route_watch.source "bluetooth"`,
		},
		{
			name: "geolocation without key",
			content: `
mqtt: {broker: tcp://localhost:1883}
services:
  route_watch: {enabled: true, source: geolocation, sound_file: a.wav}
`,
			wantErr: "maps_api_key is required",
		},
		{
			name: "no sound file",
			content: `
mqtt: {broker: tcp://localhost:1883}
services:
  route_watch: {enabled: true, gps_device_port: /dev/ttyS0}
`,
			wantErr: audio.ErrSoundFileRequired.Error(),
		},
		{
			name: "negative distance filter",
			content: `
mqtt: {broker: tcp://localhost:1883}
services:
  route_watch: {enabled: true, gps_device_port: /dev/ttyS0, sound_file: a.wav, distance_filter: -1}
`,
			wantErr: "distance_filter must not be negative",
		},
		{
			name: "route config without topic",
			content: `
mqtt: {broker: tcp://localhost:1883}
services:
  route_config: {enabled: true}
`,
			wantErr: "route_config.topic is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := utils.LoadConfig(writeConfig(t, tt.content), file.NewFileService())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DisabledRouteWatchSkipsSourceChecks(t *testing.T) {
	var config utils.Config
	config.MQTT.Broker = "tcp://localhost:1883"
	config.ApplyDefaults()

	assert.NoError(t, config.Validate())
}
