package location

import (
	"context"

	"github.com/benmeehan/route-agent/pkg/geo"
)

// FilteredSource drops fixes that are closer than minDistance meters to the last
// fix it delivered. A minDistance of zero or less delivers everything.
type FilteredSource struct {
	source      Source
	minDistance float64
}

// NewFilteredSource wraps source with a distance filter.
func NewFilteredSource(source Source, minDistanceMeters float64) *FilteredSource {
	return &FilteredSource{
		source:      source,
		minDistance: minDistanceMeters,
	}
}

// Watch forwards filtered fixes from the wrapped source.
func (f *FilteredSource) Watch(ctx context.Context, handler Handler) error {
	if f.minDistance <= 0 {
		return f.source.Watch(ctx, handler)
	}

	var (
		last      geo.GeoPoint
		delivered bool
	)
	return f.source.Watch(ctx, func(loc Location) {
		p := geo.NewGeoPoint(loc.Longitude, loc.Latitude)
		if delivered && geo.GreatCircleDistance(last, p) < f.minDistance {
			return
		}
		last, delivered = p, true
		handler(loc)
	})
}
