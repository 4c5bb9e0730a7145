package models

import "time"

// Status is the periodic report of every watcher on the device.
type Status struct {
	DeviceID  string          `json:"device_id"`
	Timestamp time.Time       `json:"timestamp"`
	Watchers  []WatcherStatus `json:"watchers"`
}

// WatcherStatus summarises one watcher.
type WatcherStatus struct {
	WatcherID          string     `json:"watcher_id"`
	Armed              bool       `json:"armed"`
	State              string     `json:"state"`
	RouteLength        int        `json:"route_length"`
	ThresholdMeters    float64    `json:"threshold_m"`
	RouteUpdatedAt     *time.Time `json:"route_updated_at,omitempty"`
	LastSampleID       string     `json:"last_sample_id,omitempty"`
	LastDistanceMeters *float64   `json:"last_distance_m,omitempty"`
}
