package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/route-agent/internal/constants"
	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/pkg/audio"
	"github.com/benmeehan/route-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Logging struct {
		Level  string `yaml:"level"`  // zerolog level name
		Pretty bool   `yaml:"pretty"` // Human readable console output
	} `yaml:"logging"`

	Services struct {
		RouteWatch struct {
			Enabled          bool          `yaml:"enabled"`           // Enable/disable route watching
			PositionTopic    string        `yaml:"position_topic"`    // MQTT topic for per-sample positions, empty disables
			AlertTopic       string        `yaml:"alert_topic"`       // MQTT topic for deviation alerts, empty disables
			QOS              int           `yaml:"qos"`               // MQTT QoS level for position and alert messages
			Source           string        `yaml:"source"`            // "sensor" or "geolocation"
			GPSDevicePort    string        `yaml:"gps_device_port"`   // UNIX port where the GPS sensor is mounted
			GPSBaudRate      int           `yaml:"gps_baud_rate"`     // Baud rate for the GPS sensor
			AllowStale       bool          `yaml:"allow_stale"`       // Accept fixes the receiver marks as invalid
			PollInterval     time.Duration `yaml:"poll_interval"`     // Interval between geolocation lookups
			MapsAPIKey       string        `yaml:"maps_api_key"`      // Google maps API key
			ModemIndex       int           `yaml:"modem_index"`       // ModemManager index used for cell tower scans
			DistanceFilter   float64       `yaml:"distance_filter"`   // Drop samples closer than this many meters to the last one
			DefaultThreshold float64       `yaml:"default_threshold"` // Threshold used when a route omits one (meters)
			SoundFile        string        `yaml:"sound_file"`        // Alert sound played when leaving the route
			Player           string        `yaml:"player"`            // Command used to play the sound file
			PlaybackTimeout  time.Duration `yaml:"playback_timeout"`  // Maximum time a single playback may take
			AudioQueueSize   int           `yaml:"audio_queue_size"`  // Pending alert sounds before new ones are dropped
		} `yaml:"route_watch"`

		RouteConfig struct {
			Enabled          bool   `yaml:"enabled"`            // Enable/disable remote route configuration
			Topic            string `yaml:"topic"`              // MQTT topic prefix for route requests
			QOS              int    `yaml:"qos"`                // MQTT QoS level for route requests and responses
			InitialRouteFile string `yaml:"initial_route_file"` // JSON route applied to the default watcher on start
		} `yaml:"route_config"`

		Status struct {
			Enabled  bool          `yaml:"enabled"`  // Enable/disable status reports
			Topic    string        `yaml:"topic"`    // MQTT topic for status reports
			Interval time.Duration `yaml:"interval"` // Interval between status reports
			QOS      int           `yaml:"qos"`      // MQTT QoS level for status messages
		} `yaml:"status"`

		Metrics struct {
			Enabled       bool   `yaml:"enabled"`        // Enable/disable the prometheus endpoint
			ListenAddress string `yaml:"listen_address"` // Address for the /metrics HTTP server
		} `yaml:"metrics"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file, fills defaults
// and validates it.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	rw := &c.Services.RouteWatch
	if rw.QOS == 0 {
		rw.QOS = constants.DefaultQOS
	}
	if rw.Source == "" {
		rw.Source = constants.SourceSensor
	}
	if rw.GPSBaudRate == 0 {
		rw.GPSBaudRate = constants.DefaultGPSBaudRate
	}
	if rw.PollInterval == 0 {
		rw.PollInterval = constants.DefaultPollInterval
	}
	if rw.DefaultThreshold == 0 {
		rw.DefaultThreshold = deviation.DefaultThresholdMeters
	}
	if rw.Player == "" {
		rw.Player = audio.DefaultPlayer
	}
	if rw.PlaybackTimeout == 0 {
		rw.PlaybackTimeout = constants.DefaultPlaybackTimeout
	}
	if rw.AudioQueueSize == 0 {
		rw.AudioQueueSize = constants.DefaultAudioQueueSize
	}

	if c.Services.RouteConfig.QOS == 0 {
		c.Services.RouteConfig.QOS = constants.DefaultQOS
	}
	if c.Services.Status.QOS == 0 {
		c.Services.Status.QOS = constants.DefaultQOS
	}
	if c.Services.Status.Interval == 0 {
		c.Services.Status.Interval = constants.DefaultStatusInterval
	}
	if c.Services.Metrics.ListenAddress == "" {
		c.Services.Metrics.ListenAddress = ":9100"
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required"))
	}

	rw := c.Services.RouteWatch
	if rw.Enabled {
		switch rw.Source {
		case constants.SourceSensor:
			if rw.GPSDevicePort == "" {
				errs = append(errs, errors.New("route_watch.gps_device_port is required for the sensor source"))
			}
		case constants.SourceGeolocation:
			if rw.MapsAPIKey == "" {
				errs = append(errs, errors.New("route_watch.maps_api_key is required for the geolocation source"))
			}
		default:
			errs = append(errs, fmt.Errorf("route_watch.source %q is not one of %q, %q",
				rw.Source, constants.SourceSensor, constants.SourceGeolocation))
		}
		if rw.SoundFile == "" {
			errs = append(errs, fmt.Errorf("route_watch.sound_file: %w", audio.ErrSoundFileRequired))
		}
		if rw.DefaultThreshold < 0 {
			errs = append(errs, errors.New("route_watch.default_threshold must not be negative"))
		}
		if rw.DistanceFilter < 0 {
			errs = append(errs, errors.New("route_watch.distance_filter must not be negative"))
		}
	}

	if c.Services.RouteConfig.Enabled && c.Services.RouteConfig.Topic == "" {
		errs = append(errs, errors.New("route_config.topic is required"))
	}
	if c.Services.Status.Enabled && c.Services.Status.Topic == "" {
		errs = append(errs, errors.New("status.topic is required"))
	}
	return errors.Join(errs...)
}
