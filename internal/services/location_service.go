package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/pkg/identity"
	"github.com/benmeehan/telematics-agent/pkg/location"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

const locationSubscriber = "location"

// EventSource delivers the modem events.
type EventSource interface {
	Subscribe(name string, buffer int) <-chan modem.Event
	Unsubscribe(name string)
}

// LocationService samples the vehicle position and enqueues position events. Navigation
// reports pushed by the modem (+UGNSINF, NMEA) are used as they arrive and the provider is
// only polled when no report came in during the last interval.
type LocationService struct {
	// Configuration fields
	interval time.Duration

	// Dependencies
	deviceInfo       identity.DeviceInfoInterface
	locationProvider location.Provider
	events           EventSource
	positions        Sink[models.PositionEvent]
	deviceEvents     Sink[models.DeviceEvent]
	logger           zerolog.Logger

	// Internal state management
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	lastFix   time.Time
	fixLost   bool
	navEvents <-chan modem.Event
}

// NewLocationService creates a new LocationService instance with the provided configuration.
// events may be nil when the modem does not push navigation reports.
func NewLocationService(interval time.Duration, deviceInfo identity.DeviceInfoInterface, locationProvider location.Provider,
	events EventSource, positions Sink[models.PositionEvent], deviceEvents Sink[models.DeviceEvent], logger zerolog.Logger) *LocationService {
	return &LocationService{
		interval:         interval,
		deviceInfo:       deviceInfo,
		locationProvider: locationProvider,
		events:           events,
		positions:        positions,
		deviceEvents:     deviceEvents,
		logger:           logger,
		running:          false,
	}
}

// Start initiates the LocationService.
func (l *LocationService) Start() error {
	if l.running {
		l.logger.Warn().Msg("LocationService is already running")
		return errors.New("location service is already running")
	}

	// Initialize context and cancel function
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.running = true
	l.lastFix = time.Time{}
	l.fixLost = false
	if l.events != nil {
		l.navEvents = l.events.Subscribe(locationSubscriber, 0)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if time.Since(l.lastFix) < l.interval {
					continue
				}
				if err := l.sampleLocation(); err != nil && !errors.Is(err, location.ErrNoFix) {
					l.logger.Error().Err(err).Msg("Failed to get location from provider")
				}
			case ev, ok := <-l.navEvents:
				if !ok {
					l.navEvents = nil
					continue
				}
				if ev.Kind == modem.EventNavigation {
					l.handleNavigation(ev.Navigation)
				}
			case <-l.ctx.Done():
				l.logger.Info().Msg("LocationService is stopping")
				return
			}
		}
	}()

	l.logger.Info().
		Dur("interval_ms", l.interval).
		Bool("navigation_reports", l.events != nil).
		Msg("LocationService started")
	return nil
}

// Stop gracefully stops the LocationService, ensuring all goroutines are terminated.
func (l *LocationService) Stop() error {
	if !l.running {
		l.logger.Warn().Msg("LocationService is not running")
		return errors.New("location service is not running")
	}

	// Signal cancellation and wait for the goroutine to exit
	l.cancel()
	l.wg.Wait()
	if l.events != nil {
		l.events.Unsubscribe(locationSubscriber)
	}
	l.running = false

	// Close the location provider
	if err := l.locationProvider.Close(); err != nil {
		l.logger.Error().Err(err).Msg("Failed to close location provider")
		return err
	}

	l.logger.Info().Msg("LocationService stopped")
	return nil
}

// sampleLocation polls the provider once.
func (l *LocationService) sampleLocation() error {
	ctx, cancel := context.WithTimeout(l.ctx, l.interval)
	defer cancel()

	loc, err := l.locationProvider.GetLocation(ctx)
	if err != nil {
		if errors.Is(err, location.ErrNoFix) {
			l.setFix(false)
		}
		return err
	}
	l.enqueue(loc)
	return nil
}

func (l *LocationService) handleNavigation(nav modem.NavInfo) {
	loc, ok := location.FromNavInfo(nav, location.SourceGNSS)
	if !ok {
		l.setFix(false)
		return
	}
	l.enqueue(loc)
}

func (l *LocationService) enqueue(loc location.Location) {
	l.setFix(true)
	l.lastFix = time.Now()

	event := models.PositionEvent{DeviceID: l.deviceInfo.GetDeviceID(), Location: loc}
	if !l.positions.Offer(event) {
		l.logger.Warn().Msg("Position queue full, dropping position")
		return
	}
	l.logger.Debug().
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Str("source", string(loc.Source)).
		Msg("Position enqueued")
}

// setFix raises a device event when the fix is lost or restored.
func (l *LocationService) setFix(fixed bool) {
	if fixed != l.fixLost {
		return
	}
	l.fixLost = !fixed
	code := constants.EventGPSSignalRestored
	if !fixed {
		code = constants.EventGPSSignalLost
	}
	l.deviceEvents.Offer(models.DeviceEvent{
		ID:        uuid.NewString(),
		DeviceID:  l.deviceInfo.GetDeviceID(),
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
	l.logger.Info().Str("code", string(code)).Msg("GNSS fix changed")
}
