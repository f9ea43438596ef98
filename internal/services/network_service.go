package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/pkg/identity"
	"github.com/benmeehan/telematics-agent/pkg/modem"
	"github.com/benmeehan/telematics-agent/pkg/uplink"
)

const networkSubscriber = "network"

// CellularModem is the part of the modem orchestrator driven by the NetworkService.
type CellularModem interface {
	Start(ctx context.Context) error
	Stop() error
	Alive() bool
	Initialize(ctx context.Context) error
	Identify(ctx context.Context) (modem.Identification, error)
	ActivateNetwork(ctx context.Context) error
	DeactivateNetwork(ctx context.Context) error
	LocalIP() string
	Subscribe(name string, buffer int) <-chan modem.Event
	Unsubscribe(name string)
}

// GNSSEngine configures the GNSS engine once the modem is up.
type GNSSEngine interface {
	Enable(ctx context.Context, interval int) error
	SetNMEAOutput(ctx context.Context, on bool) error
}

// Sink is the producer side of an event queue.
type Sink[T any] interface {
	Offer(v T) bool
}

// NetworkConfig holds the NetworkService settings.
type NetworkConfig struct {
	RetryDelay     time.Duration
	MaxBackoff     time.Duration
	ConnectTimeout time.Duration
	GNSSInterval   int
	NMEAOutput     bool
}

// NetworkService owns the modem: it starts it, brings the cellular data link and the uplink up
// and brings them back after the network drops them.
type NetworkService struct {
	// Configuration fields
	cfg NetworkConfig

	// Dependencies
	modem      CellularModem
	gnss       GNSSEngine
	uplink     uplink.Publisher
	deviceInfo identity.DeviceInfoInterface
	network    Sink[models.NetworkEvent]
	logger     zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	events  <-chan modem.Event
}

// NewNetworkService creates a NetworkService.
func NewNetworkService(cfg NetworkConfig, m CellularModem, gnss GNSSEngine, up uplink.Publisher,
	deviceInfo identity.DeviceInfoInterface, network Sink[models.NetworkEvent], logger zerolog.Logger) *NetworkService {
	return &NetworkService{
		cfg:        cfg,
		modem:      m,
		gnss:       gnss,
		uplink:     up,
		deviceInfo: deviceInfo,
		network:    network,
		logger:     logger,
	}
}

// Start opens the modem and launches the bring-up loop. Failing to reach the network is not
// a start error, the loop keeps retrying.
func (n *NetworkService) Start() error {
	if n.running {
		n.logger.Warn().Msg("NetworkService is already running")
		return errors.New("network service is already running")
	}

	n.ctx, n.cancel = context.WithCancel(context.Background())
	n.events = n.modem.Subscribe(networkSubscriber, 0)
	if err := n.modem.Start(n.ctx); err != nil {
		n.modem.Unsubscribe(networkSubscriber)
		n.cancel()
		n.logger.Error().Err(err).Msg("Failed to start the modem")
		return fmt.Errorf("start modem: %w", err)
	}
	n.running = true

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.run()
	}()

	n.logger.Info().Msg("NetworkService started successfully")
	return nil
}

// Stop closes the uplink, tears the data link down and stops the modem.
func (n *NetworkService) Stop() error {
	if !n.running {
		n.logger.Warn().Msg("NetworkService is not running")
		return errors.New("network service is not running")
	}

	n.cancel()
	n.wg.Wait()
	n.running = false

	var errs []error
	if err := n.uplink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close uplink: %w", err))
	}
	if n.modem.Alive() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ModemStopTimeout)
		if err := n.modem.DeactivateNetwork(ctx); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to deactivate the network")
		}
		cancel()
		if err := n.modem.Stop(); err != nil && !errors.Is(err, modem.ErrNotRunning) {
			errs = append(errs, fmt.Errorf("stop modem: %w", err))
		}
	}
	n.modem.Unsubscribe(networkSubscriber)

	n.logger.Info().Msg("NetworkService stopped successfully")
	return errors.Join(errs...)
}

func (n *NetworkService) run() {
	full := true
	for {
		if !n.bringUpWithRetry(full) {
			return
		}
		full = n.watch()
		n.network.Offer(models.NetworkEvent{Up: false, Timestamp: time.Now().UTC()})
		if n.ctx.Err() != nil {
			return
		}
	}
}

// bringUpWithRetry retries bringUp with exponential backoff. It returns false when stopped.
func (n *NetworkService) bringUpWithRetry(full bool) bool {
	delay := n.cfg.RetryDelay
	for attempt := 1; ; attempt++ {
		err := n.bringUp(full)
		if err == nil {
			n.drainEvents()
			ip := n.modem.LocalIP()
			n.network.Offer(models.NetworkEvent{Up: true, LocalIP: ip, Timestamp: time.Now().UTC()})
			n.logger.Info().Str("local_ip", ip).Str("device_id", n.deviceInfo.GetDeviceID()).Msg("Cellular link is up")
			return true
		}
		if n.ctx.Err() != nil {
			return false
		}
		n.logger.Error().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("Network bring-up failed")

		select {
		case <-time.After(delay):
		case <-n.ctx.Done():
			return false
		}
		delay = nextBackoff(delay, n.cfg.MaxBackoff)
		// A failed attempt may have left the module in any state.
		full = true
	}
}

// bringUp runs the bring-up sequence. A partial bring-up after a PDP deactivation skips the
// module initialization.
func (n *NetworkService) bringUp(full bool) error {
	ctx, cancel := context.WithTimeout(n.ctx, n.cfg.ConnectTimeout)
	defer cancel()

	if !n.modem.Alive() {
		if err := n.modem.Start(ctx); err != nil {
			return fmt.Errorf("restart modem: %w", err)
		}
		full = true
	}

	if full {
		if err := n.modem.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize modem: %w", err)
		}
		id, err := n.modem.Identify(ctx)
		if err != nil {
			n.logger.Warn().Err(err).Msg("Failed to identify the modem")
		} else if err := n.deviceInfo.UpdateFromModem(id); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to update the device identity")
		}
		if err := n.gnss.Enable(ctx, n.cfg.GNSSInterval); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to enable GNSS")
		} else if n.cfg.NMEAOutput {
			if err := n.gnss.SetNMEAOutput(ctx, true); err != nil {
				n.logger.Warn().Err(err).Msg("Failed to enable NMEA output")
			}
		}
	}

	if err := n.modem.ActivateNetwork(ctx); err != nil {
		return fmt.Errorf("activate network: %w", err)
	}
	if err := n.uplink.Connect(ctx); err != nil {
		return fmt.Errorf("connect uplink: %w", err)
	}
	return nil
}

// watch consumes modem events until the link needs a new bring-up. It reports whether that
// bring-up must start from the module initialization.
func (n *NetworkService) watch() (full bool) {
	for {
		select {
		case <-n.ctx.Done():
			return false
		case ev, ok := <-n.events:
			if !ok {
				n.events = nil
				continue
			}
			switch ev.Kind {
			case modem.EventPDPDeactivated:
				n.logger.Warn().Msg("PDP context deactivated, reconnecting")
				return false
			case modem.EventAppNetwork, modem.EventMQTTState:
				if !ev.Active {
					n.logger.Warn().Str("event", ev.Kind.String()).Msg("Uplink went down, reconnecting")
					return false
				}
			case modem.EventFunctionality:
				if ev.Functionality != 1 {
					n.logger.Warn().Int("functionality", ev.Functionality).Msg("Radio disabled, reinitializing")
					return true
				}
			case modem.EventSIMStatus:
				if ev.SIM != modem.SIMReady {
					n.logger.Warn().Str("sim", ev.SIM.String()).Msg("SIM not ready, reinitializing")
					return true
				}
			case modem.EventStopped:
				n.logger.Error().Msg("Modem stopped unexpectedly, restarting")
				return true
			case modem.EventDateTime:
				n.logClock(ev.Clock)
			case modem.EventTimeZone:
				n.logger.Info().Int("quarters", ev.TimeZone).Msg("Network time zone")
			}
		}
	}
}

// drainEvents drops the events raised by the bring-up itself.
func (n *NetworkService) drainEvents() {
	for {
		select {
		case ev, ok := <-n.events:
			if !ok {
				return
			}
			n.logger.Debug().Str("event", ev.Kind.String()).Msg("Dropping bring-up event")
		default:
			return
		}
	}
}

// logClock reports the drift between the network time and the host clock.
func (n *NetworkService) logClock(network time.Time) {
	drift := time.Since(network)
	evt := n.logger.Info()
	if drift > time.Minute || drift < -time.Minute {
		evt = n.logger.Warn()
	}
	evt.Time("network_time", network).Dur("drift", drift).Msg("Network time received")
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max || next <= 0 {
		return max
	}
	return next
}
