package services

import (
	"context"
	"errors"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/utils"
	"github.com/rs/zerolog"
)

// ErrAlertQueueFull is returned when an alert sound is dropped because earlier ones
// are still playing.
var ErrAlertQueueFull = errors.New("alert sound queue is full")

// AlertDispatcher plays alert sounds on a single background worker so sample
// processing never waits for playback. It implements deviation.AudioTrigger.
type AlertDispatcher struct {
	player  deviation.AudioTrigger
	pool    *utils.WorkerPool
	metrics *metrics.Metrics
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewAlertDispatcher creates a dispatcher holding at most queueSize pending sounds.
func NewAlertDispatcher(player deviation.AudioTrigger, queueSize int, m *metrics.Metrics, logger zerolog.Logger) *AlertDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &AlertDispatcher{
		player:  player,
		pool:    utils.NewWorkerPool(1, queueSize),
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Play queues the alert sound and returns immediately.
func (d *AlertDispatcher) Play(_ context.Context) error {
	err := d.pool.TrySubmit(d.play)
	if err == nil {
		return nil
	}
	d.metrics.ObserveAlertFailure("audio")
	if errors.Is(err, utils.ErrQueueFull) {
		return ErrAlertQueueFull
	}
	return err
}

func (d *AlertDispatcher) play() {
	if d.ctx.Err() != nil {
		return
	}
	if err := d.player.Play(d.ctx); err != nil {
		d.metrics.ObserveAlertFailure("audio")
		d.logger.Error().Err(err).Msg("Alert sound playback failed")
		return
	}
	d.logger.Debug().Msg("Alert sound played")
}

// Start is a no-op; the worker runs from construction.
func (d *AlertDispatcher) Start() error {
	d.logger.Info().Msg("AlertDispatcher started")
	return nil
}

// Stop interrupts the current playback and drops queued sounds.
func (d *AlertDispatcher) Stop() error {
	d.cancel()
	d.pool.Shutdown()
	d.logger.Info().Msg("AlertDispatcher stopped")
	return nil
}
