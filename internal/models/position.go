package models

import (
	"math"
	"time"
)

// Position is published for every processed sample, once per watcher.
type Position struct {
	DeviceID        string    `json:"device_id"`
	WatcherID       string    `json:"watcher_id"`
	SampleID        string    `json:"sample_id"`
	Timestamp       time.Time `json:"timestamp"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Accuracy        float64   `json:"accuracy"`
	Altitude        *float64  `json:"altitude"`
	Speed           *float64  `json:"speed"`
	Bearing         *float64  `json:"bearing"`
	DistanceMeters  *float64  `json:"distance_m"` // null when there is no route to measure against
	ThresholdMeters float64   `json:"threshold_m"`
	State           string    `json:"state"`
	Armed           bool      `json:"armed"`
}

// Meters returns nil for values JSON cannot carry (infinite or NaN distances).
func Meters(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
