package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/route-agent/internal/constants"
	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/registry"
	"github.com/benmeehan/route-agent/internal/services"
	"github.com/benmeehan/route-agent/internal/utils"
	"github.com/benmeehan/route-agent/pkg/audio"
	"github.com/benmeehan/route-agent/pkg/file"
	"github.com/benmeehan/route-agent/pkg/identity"
	"github.com/benmeehan/route-agent/pkg/location"
	"github.com/benmeehan/route-agent/pkg/mqtt"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services   *orderedmap.OrderedMap[string, registry.Service] // Registered services in start order
	mqttClient mqtt.MQTTClient
	fileClient file.FileOperations
	metrics    *metrics.Metrics
	watchers   *deviation.Registry
	logger     zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, fileClient file.FileOperations, m *metrics.Metrics,
	logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   orderedmap.NewOrderedMap[string, registry.Service](),
		mqttClient: mqttClient,
		fileClient: fileClient,
		metrics:    m,
		logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services.Get(name); exists {
		sr.logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services.Set(name, svc)
	sr.logger.Info().Msgf("Registered service: %s", name)
}

// Services returns the registered service names in start order.
func (sr *ServiceRegistry) Services() []string {
	return sr.services.Keys()
}

// Watchers returns the watcher registry built by RegisterServices.
func (sr *ServiceRegistry) Watchers() *deviation.Registry {
	return sr.watchers
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	for el := sr.services.Front(); el != nil; el = el.Next() {
		sr.logger.Info().Msgf("Starting service: %s", el.Key)
		if err := el.Value.Start(); err != nil {
			sr.logger.Error().Err(err).Msgf("Failed to start service: %s", el.Key)

			sr.logger.Warn().Msg("Stopping already started services due to startup failure...")
			for started := el.Prev(); started != nil; started = started.Prev() {
				_ = started.Value.Stop()
			}
			return fmt.Errorf("failed to start %s: %w", el.Key, err)
		}
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for el := sr.services.Back(); el != nil; el = el.Prev() {
		if err := el.Value.Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", el.Key, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deviceInfo identity.DeviceInfoInterface) error {
	rw := config.Services.RouteWatch

	// Collaborators shared by the watchers. Left as nil interfaces when disabled.
	var (
		trigger    deviation.AudioTrigger
		sink       deviation.EventSink
		dispatcher *services.AlertDispatcher
	)
	if rw.Enabled {
		player, err := audio.NewCommandPlayer(rw.Player, rw.SoundFile, rw.PlaybackTimeout, sr.fileClient, sr.logger)
		if err != nil {
			sr.logger.Error().Err(err).Msg("Failed to create audio player")
			return err
		}
		dispatcher = services.NewAlertDispatcher(player, rw.AudioQueueSize, sr.metrics, sr.logger)
		trigger = dispatcher
	}
	if rw.AlertTopic != "" {
		sink = services.NewAlertPublisher(rw.AlertTopic, rw.QOS, sr.mqttClient, deviceInfo, sr.metrics, sr.logger)
	}

	sr.watchers = deviation.NewRegistry(func(id string) *deviation.Watcher {
		return deviation.NewWatcher(id, rw.DefaultThreshold, trigger, sink, sr.logger)
	}, sr.logger)
	sr.watchers.GetOrCreate(deviation.DefaultWatcherID)
	sr.metrics.SetWatchers(sr.watchers.Count())

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "metrics",
			enabled: config.Services.Metrics.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewMetricsService(config.Services.Metrics.ListenAddress, sr.metrics, sr.logger), nil
			},
		},
		{
			name:    "alert_dispatcher",
			enabled: dispatcher != nil,
			constructor: func() (registry.Service, error) {
				return dispatcher, nil
			},
		},
		{
			name:    "route_config",
			enabled: config.Services.RouteConfig.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewRouteConfigService(
					config.Services.RouteConfig.Topic,
					config.Services.RouteConfig.QOS,
					config.Services.RouteConfig.InitialRouteFile,
					sr.watchers,
					sr.mqttClient,
					sr.fileClient,
					deviceInfo,
					sr.metrics,
					sr.logger,
				), nil
			},
		},
		{
			name:    "route_watch",
			enabled: rw.Enabled,
			constructor: func() (registry.Service, error) {
				source, err := sr.newLocationSource(config)
				if err != nil {
					return nil, err
				}
				return services.NewRouteWatchService(
					rw.PositionTopic,
					rw.QOS,
					source,
					sr.watchers,
					sr.mqttClient,
					deviceInfo,
					sr.metrics,
					sr.logger,
				), nil
			},
		},
		{
			name:    "status",
			enabled: config.Services.Status.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewStatusService(
					config.Services.Status.Topic,
					config.Services.Status.Interval,
					config.Services.Status.QOS,
					deviceInfo,
					sr.watchers,
					sr.mqttClient,
					sr.logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}

// newLocationSource builds the configured fix source, wrapped in a distance filter
// when one is set.
func (sr *ServiceRegistry) newLocationSource(config *utils.Config) (location.Source, error) {
	rw := config.Services.RouteWatch

	var source location.Source
	switch rw.Source {
	case constants.SourceGeolocation:
		provider, err := location.NewGoogleGeolocationProvider(rw.MapsAPIKey, rw.ModemIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Geolocation provider: %w", err)
		}
		source = location.NewPollingSource(provider, rw.PollInterval, sr.logger)
	case constants.SourceSensor:
		source = location.NewDeviceSensorSource(rw.GPSDevicePort, rw.GPSBaudRate, rw.AllowStale)
	default:
		return nil, fmt.Errorf("unknown location source %q", rw.Source)
	}

	if rw.DistanceFilter > 0 {
		source = location.NewFilteredSource(source, rw.DistanceFilter)
	}
	return source, nil
}
