package location

import (
	"context"
	"errors"
)

// ErrNoFix is returned when a provider has no usable position yet.
var ErrNoFix = errors.New("no valid location fix")

// Provider returns a single location on demand.
type Provider interface {
	GetLocation(ctx context.Context) (Location, error)
	Close() error
}

// Handler receives pushed locations, one at a time.
type Handler func(Location)

// Source pushes locations to a handler until ctx is cancelled or the underlying
// device stops. A source may never call the handler if it never acquires a fix.
type Source interface {
	Watch(ctx context.Context, handler Handler) error
}
