package location

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// PollingSource turns an on-demand Provider into a push Source by asking it for a
// location at a fixed interval. Provider errors are logged and the next tick retried.
type PollingSource struct {
	provider Provider
	interval time.Duration
	logger   zerolog.Logger
}

// NewPollingSource creates a polling source.
func NewPollingSource(provider Provider, interval time.Duration, logger zerolog.Logger) *PollingSource {
	return &PollingSource{
		provider: provider,
		interval: interval,
		logger:   logger,
	}
}

// Watch polls immediately and then on every tick until ctx is cancelled.
func (p *PollingSource) Watch(ctx context.Context, handler Handler) error {
	defer func() {
		if err := p.provider.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close location provider")
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.poll(ctx, handler)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *PollingSource) poll(ctx context.Context, handler Handler) {
	loc, err := p.provider.GetLocation(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case errors.Is(err, ErrNoFix):
		p.logger.Debug().Msg("Location provider has no fix yet")
		return
	default:
		p.logger.Warn().Err(err).Msg("Failed to get location from provider")
		return
	}
	handler(loc)
}
