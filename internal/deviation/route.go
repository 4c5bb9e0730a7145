package deviation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/benmeehan/route-agent/pkg/geo"
	"github.com/twpayne/go-polyline"
)

// DefaultThresholdMeters is used when a route configuration does not carry a distance.
const DefaultThresholdMeters = 50.0

// ErrInvalidRoute is returned for route configurations that cannot be applied.
var ErrInvalidRoute = errors.New("invalid route configuration")

// RouteConfiguration is the caller-supplied planned route. Coordinates are
// (longitude, latitude) rows; extra columns such as altitude are ignored. A route may
// instead be given as an encoded polyline, which uses (latitude, longitude) order.
type RouteConfiguration struct {
	Coordinates     [][]float64 `json:"route,omitempty"`
	Polyline        string      `json:"polyline,omitempty"`
	ThresholdMeters *float64    `json:"distance,omitempty"`
}

// ParseRouteConfiguration decodes a JSON route configuration and validates it.
func ParseRouteConfiguration(data []byte) (RouteConfiguration, error) {
	var cfg RouteConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RouteConfiguration{}, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	if _, _, err := cfg.Resolve(DefaultThresholdMeters); err != nil {
		return RouteConfiguration{}, err
	}
	return cfg, nil
}

// Resolve validates the configuration and returns the route points and threshold.
// defaultThreshold is used when the configuration leaves the distance unset.
func (c RouteConfiguration) Resolve(defaultThreshold float64) ([]geo.GeoPoint, float64, error) {
	threshold := defaultThreshold
	if c.ThresholdMeters != nil {
		threshold = *c.ThresholdMeters
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return nil, 0, fmt.Errorf("%w: distance must be a non-negative number, got %v", ErrInvalidRoute, threshold)
	}

	if len(c.Coordinates) > 0 && c.Polyline != "" {
		return nil, 0, fmt.Errorf("%w: route and polyline are mutually exclusive", ErrInvalidRoute)
	}

	var (
		points []geo.GeoPoint
		err    error
	)
	if c.Polyline != "" {
		points, err = decodePolyline(c.Polyline)
	} else {
		points, err = coordinatesToPoints(c.Coordinates)
	}
	if err != nil {
		return nil, 0, err
	}
	return points, threshold, nil
}

// coordinatesToPoints requires a rectangular matrix with at least two columns.
func coordinatesToPoints(rows [][]float64) ([]geo.GeoPoint, error) {
	if len(rows) == 0 {
		return []geo.GeoPoint{}, nil
	}

	cols := len(rows[0])
	if cols < 2 {
		return nil, fmt.Errorf("%w: rows need longitude and latitude, got %d columns", ErrInvalidRoute, cols)
	}

	points := make([]geo.GeoPoint, 0, len(rows))
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrInvalidRoute, i, len(row), cols)
		}
		p := geo.NewGeoPoint(row[0], row[1])
		if !p.Valid() {
			return nil, fmt.Errorf("%w: row %d is out of range: (%v, %v)", ErrInvalidRoute, i, row[0], row[1])
		}
		points = append(points, p)
	}
	return points, nil
}

func decodePolyline(encoded string) ([]geo.GeoPoint, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after polyline", ErrInvalidRoute, len(rest))
	}

	points := make([]geo.GeoPoint, 0, len(coords))
	for i, c := range coords {
		p := geo.NewGeoPoint(c[1], c[0])
		if !p.Valid() {
			return nil, fmt.Errorf("%w: polyline point %d is out of range", ErrInvalidRoute, i)
		}
		points = append(points, p)
	}
	return points, nil
}
