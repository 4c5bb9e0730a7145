package deviation

import (
	"context"
	"time"

	"github.com/benmeehan/route-agent/pkg/geo"
)

// PositionSample is one position fix. ID and Time are carried through for correlation
// only and play no part in the geometry.
type PositionSample struct {
	ID       string
	Time     time.Time
	Point    geo.GeoPoint
	Accuracy float64
}

// DeviationEvent is emitted each time a watcher goes from on-route to off-route.
type DeviationEvent struct {
	ID              string
	WatcherID       string
	SampleID        string
	Time            time.Time
	Position        geo.GeoPoint
	DistanceMeters  float64
	ThresholdMeters float64
}

// SampleResult describes what a watcher did with one sample.
type SampleResult struct {
	WatcherID       string
	SampleID        string
	Position        geo.GeoPoint
	DistanceMeters  float64
	ThresholdMeters float64
	Exceeds         bool
	State           State
	Alert           AlertEvent
	// Armed is false until the watcher receives its first route.
	Armed bool
}

// AudioTrigger plays the off-route alert sound.
type AudioTrigger interface {
	Play(ctx context.Context) error
}

// EventSink receives deviation events, for example to raise a notification.
type EventSink interface {
	PublishDeviation(ctx context.Context, event DeviationEvent) error
}

// NopEventSink discards events.
type NopEventSink struct{}

func (NopEventSink) PublishDeviation(context.Context, DeviationEvent) error { return nil }
