package service_registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/internal/app"
	"github.com/benmeehan/telematics-agent/internal/registry"
	"github.com/benmeehan/telematics-agent/internal/services"
	"github.com/benmeehan/telematics-agent/pkg/location"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new, empty service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Names returns the registered services in start order.
func (sr *ServiceRegistry) Names() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers the enabled services. The network service
// owns the modem and is always registered first so that it is stopped last.
func (sr *ServiceRegistry) RegisterServices(c *app.Context) error {
	cfg := c.Config
	svcs := cfg.Services
	logger := func(name string) zerolog.Logger {
		return c.Logger.With().Str("service", name).Logger()
	}

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "network",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return services.NewNetworkService(
					services.NetworkConfig{
						RetryDelay:     svcs.Network.RetryDelay,
						MaxBackoff:     svcs.Network.MaxBackoff,
						ConnectTimeout: svcs.Network.ConnectTimeout,
						GNSSInterval:   cfg.GNSS.URCInterval,
						NMEAOutput:     cfg.GNSS.NMEAOutput,
					},
					c.Modem,
					c.GNSS,
					c.Uplink,
					c.DeviceInfo,
					c.Network,
					logger("network"),
				), nil
			},
		},
		{
			name:    "location",
			enabled: svcs.Location.Enabled,
			constructor: func() (registry.Service, error) {
				provider, err := sr.locationProvider(c)
				if err != nil {
					return nil, err
				}
				return services.NewLocationService(
					svcs.Location.Interval,
					c.DeviceInfo,
					provider,
					c.Modem,
					c.Positions,
					c.DeviceEvents,
					logger("location"),
				), nil
			},
		},
		{
			name:    "telemetry",
			enabled: svcs.Telemetry.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewTelemetryService(
					svcs.Telemetry.PositionTopic,
					svcs.Telemetry.EventTopic,
					svcs.Telemetry.QOS,
					c.Positions.C(),
					c.DeviceEvents.C(),
					c.Uplink,
					c.Topic,
					logger("telemetry"),
				), nil
			},
		},
		{
			name:    "heartbeat",
			enabled: svcs.Heartbeat.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewHeartbeatService(
					svcs.Heartbeat.Topic,
					svcs.Heartbeat.Interval,
					c.DeviceInfo,
					svcs.Heartbeat.QOS,
					c.Uplink,
					c.Topic,
					c.Modem,
					logger("heartbeat"),
				), nil
			},
		},
		{
			name:    "metrics",
			enabled: svcs.Metrics.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewMetricsService(
					svcs.Metrics.Topic,
					svcs.Metrics.Monitor,
					svcs.Metrics.Interval,
					svcs.Metrics.Timeout,
					c.DeviceInfo,
					svcs.Metrics.QOS,
					c.Uplink,
					c.Topic,
					c.Modem,
					logger("metrics"),
				), nil
			},
		},
		{
			name:    "message",
			enabled: svcs.Message.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewMessageService(
					svcs.Message.PingTopic,
					svcs.Message.PongTopic,
					svcs.Message.QOS,
					c.Uplink,
					c.Topic,
					c.DeviceInfo,
					c.Pings,
					c.Pings.C(),
					logger("message"),
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
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}

// locationProvider chains the configured position sources: the modem GNSS first, then the
// external sensor, then the cell tower geolocation.
func (sr *ServiceRegistry) locationProvider(c *app.Context) (location.Provider, error) {
	loc := c.Config.Services.Location
	providers := []location.Provider{location.NewGNSSProvider(c.GNSS)}

	if loc.Sensor.Enabled {
		providers = append(providers, location.NewDeviceSensorProvider(loc.Sensor.Port, loc.Sensor.BaudRate))
	}
	if loc.CellTower.Enabled {
		cell, err := location.NewCellTowerProvider(c.Modem, loc.CellTower.MapsAPIKey, loc.CellTower.ScanWiFi,
			c.Logger.With().Str("provider", "cell").Logger())
		if err != nil {
			return nil, fmt.Errorf("create cell tower provider: %w", err)
		}
		providers = append(providers, cell)
	}
	return location.NewFallback(c.Logger.With().Str("provider", "fallback").Logger(), providers...), nil
}
