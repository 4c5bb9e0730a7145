package deviation

import (
	"context"
	"sort"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// DefaultWatcherID is the watcher used when a route update does not name one.
const DefaultWatcherID = "default"

// WatcherFactory builds a watcher for the given ID.
type WatcherFactory func(id string) *Watcher

// Registry holds independent watchers keyed by ID. Each watcher owns its own route
// and hysteresis; nothing is shared between them.
type Registry struct {
	watchers cmap.ConcurrentMap[string, *Watcher]
	factory  WatcherFactory
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory WatcherFactory, logger zerolog.Logger) *Registry {
	return &Registry{
		watchers: cmap.New[*Watcher](),
		factory:  factory,
		logger:   logger,
	}
}

// Add creates a watcher with a fresh random ID.
func (r *Registry) Add() *Watcher {
	return r.GetOrCreate(uuid.NewString())
}

// GetOrCreate returns the watcher for id, creating it if needed.
func (r *Registry) GetOrCreate(id string) *Watcher {
	if id == "" {
		id = DefaultWatcherID
	}
	if w, ok := r.watchers.Get(id); ok {
		return w
	}

	created := r.factory(id)
	if !r.watchers.SetIfAbsent(id, created) {
		// Lost a race with another creator; use the stored one.
		w, _ := r.watchers.Get(id)
		return w
	}
	r.logger.Info().Str("watcher_id", id).Msg("Watcher added")
	return created
}

// Get looks up a watcher.
func (r *Registry) Get(id string) (*Watcher, bool) {
	return r.watchers.Get(id)
}

// Remove drops a watcher. It reports whether the watcher existed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.watchers.Pop(id); !ok {
		return false
	}
	r.logger.Info().Str("watcher_id", id).Msg("Watcher removed")
	return true
}

// Count returns the number of registered watchers.
func (r *Registry) Count() int {
	return r.watchers.Count()
}

// Dispatch feeds sample to every watcher in ID order and returns their results.
func (r *Registry) Dispatch(ctx context.Context, sample PositionSample) []SampleResult {
	watchers := r.sorted()
	results := make([]SampleResult, 0, len(watchers))
	for _, w := range watchers {
		results = append(results, w.OnSample(ctx, sample))
	}
	return results
}

// Statuses returns the status of every watcher in ID order.
func (r *Registry) Statuses() []WatcherStatus {
	watchers := r.sorted()
	statuses := make([]WatcherStatus, 0, len(watchers))
	for _, w := range watchers {
		statuses = append(statuses, w.Status())
	}
	return statuses
}

func (r *Registry) sorted() []*Watcher {
	items := r.watchers.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	watchers := make([]*Watcher, 0, len(ids))
	for _, id := range ids {
		watchers = append(watchers, items[id])
	}
	return watchers
}
