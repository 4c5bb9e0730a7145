package location

import "time"

// Location is a single position fix delivered by a provider.
type Location struct {
	Latitude  float64
	Longitude float64
	// Accuracy is the horizontal uncertainty. Sensor fixes use HDOP as a proxy.
	Accuracy float64
	Altitude *float64
	// Bearing is the course over ground in degrees from true north.
	Bearing *float64
	// Speed is the speed over ground in meters per second.
	Speed *float64
	Time  time.Time
}
