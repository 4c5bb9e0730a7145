package deviation_test

import (
	"math"
	"testing"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/pkg/geo"
	"github.com/stretchr/testify/assert"
)

func pt(lon, lat float64) geo.GeoPoint {
	return geo.NewGeoPoint(lon, lat)
}

var meridianRoute = []geo.GeoPoint{pt(0, 0), pt(0, 1)}

func TestDetector_EmptyRouteIsInfinitelyFar(t *testing.T) {
	d := deviation.NewDetector(nil, 50)

	for _, p := range []geo.GeoPoint{pt(0, 0), pt(45, 45), pt(-120, -30)} {
		assert.True(t, math.IsInf(d.DistanceToRoute(p), 1))
		assert.True(t, d.ExceedsThreshold(p))
	}
}

func TestDetector_SinglePointRoute(t *testing.T) {
	r := pt(2.3522, 48.8566)
	d := deviation.NewDetector([]geo.GeoPoint{r}, 50)

	p := pt(2.3530, 48.8570)
	assert.Equal(t, geo.GreatCircleDistance(p, r), d.DistanceToRoute(p))
}

func TestDetector_NearMidpointIsOnRoute(t *testing.T) {
	d := deviation.NewDetector(meridianRoute, 50)

	p := pt(0.0001, 0.5)
	assert.InDelta(t, 11.1, d.DistanceToRoute(p), 0.1)
	assert.False(t, d.ExceedsThreshold(p))
}

func TestDetector_FarFromMidpointIsOffRoute(t *testing.T) {
	d := deviation.NewDetector(meridianRoute, 50)

	p := pt(0.01, 0.5)
	assert.InDelta(t, 1112, d.DistanceToRoute(p), 1)
	assert.True(t, d.ExceedsThreshold(p))
}

func TestDetector_ThresholdIsStrict(t *testing.T) {
	p := pt(0.0001, 0.5)
	distance := deviation.NewDetector(meridianRoute, 0).DistanceToRoute(p)

	atThreshold := deviation.NewDetector(meridianRoute, distance)
	assert.False(t, atThreshold.ExceedsThreshold(p))

	below := deviation.NewDetector(meridianRoute, math.Nextafter(distance, 0))
	assert.True(t, below.ExceedsThreshold(p))
}

func TestDetector_MinimumAcrossSegments(t *testing.T) {
	route := []geo.GeoPoint{pt(0, 0), pt(0, 0.001), pt(0.001, 0.001), pt(0.001, 0.002)}
	d := deviation.NewDetector(route, 50)

	p := pt(0.0012, 0.0015)
	var want = math.Inf(1)
	for i := 0; i < len(route)-1; i++ {
		want = math.Min(want, geo.DistancePointToSegment(p, route[i], route[i+1]))
	}
	assert.Equal(t, want, d.DistanceToRoute(p))
	assert.InDelta(t, 22.2, d.DistanceToRoute(p), 0.2)
}

func TestDetector_OwnsRouteCopy(t *testing.T) {
	route := []geo.GeoPoint{pt(0, 0), pt(0, 1)}
	d := deviation.NewDetector(route, 50)

	route[1] = pt(10, 10)

	p := pt(0.0001, 0.5)
	assert.InDelta(t, 11.1, d.DistanceToRoute(p), 0.1)
	assert.Equal(t, 2, d.RouteLength())
	assert.Equal(t, 50.0, d.Threshold())
}
