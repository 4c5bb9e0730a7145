package deviation

import (
	"github.com/benmeehan/route-agent/pkg/geo"
)

// Detector measures how far a position is from a planned route. A Detector is never
// mutated after construction; a new route means a new Detector.
type Detector struct {
	route     []geo.GeoPoint
	threshold float64
}

// NewDetector copies route so later changes by the caller are not observed.
func NewDetector(route []geo.GeoPoint, thresholdMeters float64) *Detector {
	owned := make([]geo.GeoPoint, len(route))
	copy(owned, route)
	return &Detector{
		route:     owned,
		threshold: thresholdMeters,
	}
}

// DistanceToRoute returns the minimum distance in meters from p to the route.
// An empty route returns +Inf.
func (d *Detector) DistanceToRoute(p geo.GeoPoint) float64 {
	return geo.DistanceToPolyline(p, d.route)
}

// ExceedsThreshold reports whether p is strictly farther than the threshold from the route.
func (d *Detector) ExceedsThreshold(p geo.GeoPoint) bool {
	_, exceeds := d.Measure(p)
	return exceeds
}

// Measure returns the distance to the route together with the threshold comparison.
func (d *Detector) Measure(p geo.GeoPoint) (float64, bool) {
	distance := d.DistanceToRoute(p)
	return distance, distance > d.threshold
}

// Threshold returns the configured threshold in meters.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// RouteLength returns the number of points in the route.
func (d *Detector) RouteLength() int {
	return len(d.route)
}
