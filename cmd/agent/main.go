package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/route-agent/internal/metrics"
	"github.com/benmeehan/route-agent/internal/service_registry"
	"github.com/benmeehan/route-agent/internal/utils"
	"github.com/benmeehan/route-agent/pkg/file"
	"github.com/benmeehan/route-agent/pkg/identity"
	"github.com/benmeehan/route-agent/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	log = newLogger(config)

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load device information")
	}
	log = log.With().Str("device_id", deviceInfo.GetDeviceID()).Logger()

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.NewString()
	log.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient, log)
	if err := mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, fileClient, metrics.New(), log)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config, deviceInfo); err != nil {
		mqttClient.Disconnect(250)
		log.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		mqttClient.Disconnect(250)
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopCh

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Some services failed to stop")
	}
	mqttClient.Disconnect(250)
}

// newLogger builds the root logger from the logging section.
func newLogger(config *utils.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.Logging.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
