package models

import "time"

// DeviationAlert is published once per off-route episode.
type DeviationAlert struct {
	EventID         string    `json:"event_id"`
	DeviceID        string    `json:"device_id"`
	WatcherID       string    `json:"watcher_id"`
	SampleID        string    `json:"sample_id"`
	Timestamp       time.Time `json:"timestamp"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	DistanceMeters  *float64  `json:"distance_m"`
	ThresholdMeters float64   `json:"threshold_m"`
}
