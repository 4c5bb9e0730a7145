package constants

import "time"

// Route request outcomes
const (
	// RouteStatusAccepted indicates the route was validated and applied
	RouteStatusAccepted = "accepted"
	// RouteStatusRejected indicates the request was invalid; the previous route stays active
	RouteStatusRejected = "rejected"
	// RouteStatusRemoved indicates the watcher was removed
	RouteStatusRemoved = "removed"
)

// Location sources
const (
	SourceSensor      = "sensor"
	SourceGeolocation = "geolocation"
)

const (
	DefaultQOS             = 1
	DefaultStatusInterval  = 30 * time.Second
	DefaultPollInterval    = 5 * time.Second
	DefaultPlaybackTimeout = 10 * time.Second
	DefaultAudioQueueSize  = 4
	DefaultGPSBaudRate     = 9600
	DefaultPublishTimeout  = 5 * time.Second

	// MaxSourceBackoff caps the delay between location source restarts.
	MaxSourceBackoff = 30 * time.Second
)
