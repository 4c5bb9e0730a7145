package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/rs/zerolog"
)

const metricsShutdownTimeout = 5 * time.Second

// MetricsService serves prometheus metrics over HTTP.
type MetricsService struct {
	listenAddress string
	metrics       *metrics.Metrics
	logger        zerolog.Logger

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
	wg     sync.WaitGroup
}

// NewMetricsService creates a MetricsService listening on listenAddress.
func NewMetricsService(listenAddress string, m *metrics.Metrics, logger zerolog.Logger) *MetricsService {
	return &MetricsService{
		listenAddress: listenAddress,
		metrics:       m,
		logger:        logger,
	}
}

// Start binds the listener and serves /metrics in the background.
func (ms *MetricsService) Start() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.server != nil {
		ms.logger.Warn().Msg("MetricsService is already running")
		return errors.New("metrics service is already running")
	}

	listener, err := net.Listen("tcp", ms.listenAddress)
	if err != nil {
		ms.logger.Error().Err(err).Str("address", ms.listenAddress).Msg("Failed to bind metrics listener")
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", ms.metrics.Handler())
	ms.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ms.addr = listener.Addr()

	ms.wg.Add(1)
	go func(server *http.Server) {
		defer ms.wg.Done()
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ms.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}(ms.server)

	ms.logger.Info().Str("address", ms.addr.String()).Msg("MetricsService started")
	return nil
}

// Stop shuts the HTTP server down.
func (ms *MetricsService) Stop() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.server == nil {
		ms.logger.Warn().Msg("MetricsService is not running")
		return errors.New("metrics service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	err := ms.server.Shutdown(ctx)
	ms.wg.Wait()

	ms.server = nil
	ms.logger.Info().Msg("MetricsService stopped")
	return err
}

// Addr returns the bound address while running.
func (ms *MetricsService) Addr() string {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.addr == nil {
		return ""
	}
	return ms.addr.String()
}
