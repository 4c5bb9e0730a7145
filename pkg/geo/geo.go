package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for all great-circle computations.
const EarthRadiusMeters = 6371000.0

// GeoPoint is a geographic coordinate in decimal degrees.
type GeoPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// NewGeoPoint builds a point from a longitude/latitude pair.
func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Longitude: longitude, Latitude: latitude}
}

// Valid reports whether the point is finite and inside [-180, 180] x [-90, 90].
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) {
		return false
	}
	return p.Longitude >= -180 && p.Longitude <= 180 &&
		p.Latitude >= -90 && p.Latitude <= 90
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// GreatCircleDistance returns the haversine distance between a and b in meters.
func GreatCircleDistance(a, b GeoPoint) float64 {
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h a hair above 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// DistancePointToSegment approximates the shortest distance in meters from p to the
// segment [s1, s2]. The three pairwise great-circle distances are treated as the sides
// of a planar triangle, which holds well for segments up to a few hundred meters.
func DistancePointToSegment(p, s1, s2 GeoPoint) float64 {
	dPS1 := GreatCircleDistance(p, s1)
	dPS2 := GreatCircleDistance(p, s2)
	dS1S2 := GreatCircleDistance(s1, s2)

	// Segment collapsed to a point.
	if dS1S2 == 0 {
		return dPS1
	}
	// p sits on an endpoint; the angle there is undefined.
	if dPS1 == 0 || dPS2 == 0 {
		return 0
	}

	// Law of cosines: an obtuse angle at an endpoint means the foot of the
	// perpendicular falls outside the segment on that side.
	cosS1 := (dPS1*dPS1 + dS1S2*dS1S2 - dPS2*dPS2) / (2 * dPS1 * dS1S2)
	if cosS1 < 0 {
		return dPS1
	}
	cosS2 := (dPS2*dPS2 + dS1S2*dS1S2 - dPS1*dPS1) / (2 * dPS2 * dS1S2)
	if cosS2 < 0 {
		return dPS2
	}

	// Heron's formula, then height = 2 * area / base.
	s := (dPS1 + dPS2 + dS1S2) / 2
	area := math.Sqrt(math.Max(0, s*(s-dPS1)*(s-dPS2)*(s-dS1S2)))
	return 2 * area / dS1S2
}

// DistanceToPolyline returns the minimum distance from p to the polyline formed by
// consecutive points. An empty polyline is infinitely far away and a single point is
// measured directly.
func DistanceToPolyline(p GeoPoint, points []GeoPoint) float64 {
	switch len(points) {
	case 0:
		return math.Inf(1)
	case 1:
		return GreatCircleDistance(p, points[0])
	}

	minDistance := math.Inf(1)
	for i := 0; i < len(points)-1; i++ {
		if d := DistancePointToSegment(p, points[i], points[i+1]); d < minDistance {
			minDistance = d
		}
	}
	return minDistance
}
