package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/route-agent/internal/constants"
	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/models"
	"github.com/benmeehan/route-agent/pkg/file"
	"github.com/benmeehan/route-agent/pkg/identity"
	"github.com/benmeehan/route-agent/pkg/mqtt"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// ErrWatcherNotFound is returned when a remove request names an unknown watcher.
var ErrWatcherNotFound = errors.New("watcher not found")

// RouteConfigService receives route requests over MQTT, applies them to the watcher
// registry and publishes a response for each one.
type RouteConfigService struct {
	// Configuration Fields
	subTopic         string
	qos              int
	initialRouteFile string
	publishTimeout   time.Duration

	// Dependencies
	watchers   *deviation.Registry
	mqttClient mqtt.MQTTClient
	fileClient file.FileOperations
	deviceInfo identity.DeviceInfoInterface
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	// Internal state management
	mu         sync.Mutex
	subscribed bool
}

// NewRouteConfigService creates a RouteConfigService. initialRouteFile, when set, is
// applied to the default watcher on Start.
func NewRouteConfigService(subTopic string, qos int, initialRouteFile string, watchers *deviation.Registry,
	mqttClient mqtt.MQTTClient, fileClient file.FileOperations, deviceInfo identity.DeviceInfoInterface,
	m *metrics.Metrics, logger zerolog.Logger) *RouteConfigService {
	return &RouteConfigService{
		subTopic:         subTopic,
		qos:              qos,
		initialRouteFile: initialRouteFile,
		publishTimeout:   constants.DefaultPublishTimeout,
		watchers:         watchers,
		mqttClient:       mqttClient,
		fileClient:       fileClient,
		deviceInfo:       deviceInfo,
		metrics:          m,
		logger:           logger,
	}
}

// Start applies the initial route, if any, and subscribes to route requests.
func (rs *RouteConfigService) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.subscribed {
		rs.logger.Warn().Msg("RouteConfigService is already running")
		return errors.New("route config service is already running")
	}

	if rs.initialRouteFile != "" {
		if err := rs.loadInitialRoute(); err != nil {
			rs.logger.Error().Err(err).Str("file", rs.initialRouteFile).Msg("Failed to apply initial route")
			return err
		}
	}

	topic := rs.requestTopic()
	token := rs.mqttClient.Subscribe(topic, byte(rs.qos), rs.HandleRouteRequest)
	token.Wait()
	if err := token.Error(); err != nil {
		rs.logger.Error().Err(err).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		return err
	}

	rs.subscribed = true
	rs.logger.Info().Str("topic", topic).Msg("RouteConfigService subscribed to route requests")
	return nil
}

// Stop unsubscribes from route requests.
func (rs *RouteConfigService) Stop() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.subscribed {
		rs.logger.Warn().Msg("RouteConfigService is not running")
		return errors.New("route config service is not running")
	}

	topic := rs.requestTopic()
	token := rs.mqttClient.Unsubscribe(topic)
	token.Wait()
	if err := token.Error(); err != nil {
		rs.logger.Error().Err(err).Str("topic", topic).Msg("Failed to unsubscribe from MQTT topic")
		return err
	}

	rs.subscribed = false
	rs.logger.Info().Msg("RouteConfigService stopped")
	return nil
}

// HandleRouteRequest applies one request and publishes the response.
func (rs *RouteConfigService) HandleRouteRequest(_ MQTT.Client, msg MQTT.Message) {
	rs.logger.Info().Str("topic", msg.Topic()).Int("bytes", len(msg.Payload())).Msg("Received route request")

	response := rs.ProcessRequest(msg.Payload())

	topic := rs.requestTopic() + "/response"
	if err := mqtt.PublishJSON(rs.mqttClient, topic, byte(rs.qos), false, response, rs.publishTimeout); err != nil {
		rs.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("request_id", response.RequestID).
			Msg("Failed to publish route response")
	}
}

// ProcessRequest decodes and applies a route request. A rejected request leaves the
// watcher's previous route in place.
func (rs *RouteConfigService) ProcessRequest(payload []byte) models.RouteResponse {
	var request models.RouteRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		return rs.reject(request, fmt.Errorf("%w: %v", deviation.ErrInvalidRoute, err))
	}
	if request.WatcherID == "" {
		request.WatcherID = deviation.DefaultWatcherID
	}

	if request.Remove {
		if !rs.watchers.Remove(request.WatcherID) {
			return rs.reject(request, fmt.Errorf("%w: %s", ErrWatcherNotFound, request.WatcherID))
		}
		rs.metrics.ForgetWatcher(request.WatcherID)
		rs.metrics.SetWatchers(rs.watchers.Count())
		rs.metrics.ObserveRouteUpdate(metrics.ResultRemoved)
		return models.RouteResponse{
			RequestID: request.RequestID,
			WatcherID: request.WatcherID,
			Status:    constants.RouteStatusRemoved,
		}
	}

	// Validate before GetOrCreate so a bad request never creates a watcher.
	if _, _, err := request.RouteConfiguration.Resolve(deviation.DefaultThresholdMeters); err != nil {
		return rs.reject(request, err)
	}
	if err := rs.watchers.GetOrCreate(request.WatcherID).SetRoute(request.RouteConfiguration); err != nil {
		return rs.reject(request, err)
	}

	rs.metrics.SetWatchers(rs.watchers.Count())
	rs.metrics.ObserveRouteUpdate(metrics.ResultAccepted)
	rs.logger.Info().
		Str("request_id", request.RequestID).
		Str("watcher_id", request.WatcherID).
		Msg("Route request accepted")
	return models.RouteResponse{
		RequestID: request.RequestID,
		WatcherID: request.WatcherID,
		Status:    constants.RouteStatusAccepted,
	}
}

func (rs *RouteConfigService) reject(request models.RouteRequest, err error) models.RouteResponse {
	rs.metrics.ObserveRouteUpdate(metrics.ResultRejected)
	rs.logger.Warn().
		Err(err).
		Str("request_id", request.RequestID).
		Str("watcher_id", request.WatcherID).
		Msg("Route request rejected")
	return models.RouteResponse{
		RequestID: request.RequestID,
		WatcherID: request.WatcherID,
		Status:    constants.RouteStatusRejected,
		Error:     err.Error(),
	}
}

func (rs *RouteConfigService) loadInitialRoute() error {
	data, err := rs.fileClient.ReadFileRaw(rs.initialRouteFile)
	if err != nil {
		return fmt.Errorf("failed to read initial route: %w", err)
	}
	cfg, err := deviation.ParseRouteConfiguration(data)
	if err != nil {
		return err
	}
	if err := rs.watchers.GetOrCreate(deviation.DefaultWatcherID).SetRoute(cfg); err != nil {
		return err
	}
	rs.metrics.SetWatchers(rs.watchers.Count())
	rs.logger.Info().Str("file", rs.initialRouteFile).Msg("Initial route applied")
	return nil
}

func (rs *RouteConfigService) requestTopic() string {
	return rs.subTopic + "/" + rs.deviceInfo.GetDeviceID()
}
