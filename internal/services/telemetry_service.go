package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/pkg/uplink"
)

const (
	telemetryPublishTimeout = 30 * time.Second
	telemetryRetryInterval  = 5 * time.Second
	// maxPendingEvents bounds the device events kept while the uplink is down.
	maxPendingEvents = 50
)

// TopicFunc resolves a topic name to the full topic of the device.
type TopicFunc func(name string) string

// TelemetryService drains the position and device event queues and publishes them. Device
// events that cannot be published are kept and retried, positions are dropped.
type TelemetryService struct {
	// Configuration fields
	positionTopic string
	eventTopic    string
	qos           int

	// Dependencies
	positions    <-chan models.PositionEvent
	deviceEvents <-chan models.DeviceEvent
	uplink       uplink.Publisher
	topic        TopicFunc
	logger       zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	pending []models.DeviceEvent
}

// NewTelemetryService creates a TelemetryService.
func NewTelemetryService(positionTopic, eventTopic string, qos int, positions <-chan models.PositionEvent,
	deviceEvents <-chan models.DeviceEvent, up uplink.Publisher, topic TopicFunc, logger zerolog.Logger) *TelemetryService {
	return &TelemetryService{
		positionTopic: positionTopic,
		eventTopic:    eventTopic,
		qos:           qos,
		positions:     positions,
		deviceEvents:  deviceEvents,
		uplink:        up,
		topic:         topic,
		logger:        logger,
	}
}

// Start launches the publishing loop.
func (t *TelemetryService) Start() error {
	if t.running {
		t.logger.Warn().Msg("TelemetryService is already running")
		return errors.New("telemetry service is already running")
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.running = true

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.run()
	}()

	t.logger.Info().Str("positions", t.positionTopic).Str("events", t.eventTopic).Msg("TelemetryService started successfully")
	return nil
}

// Stop gracefully stops the telemetry service.
func (t *TelemetryService) Stop() error {
	if !t.running {
		t.logger.Warn().Msg("TelemetryService is not running")
		return errors.New("telemetry service is not running")
	}

	t.cancel()
	t.wg.Wait()
	t.running = false

	if len(t.pending) > 0 {
		t.logger.Warn().Int("events", len(t.pending)).Msg("Dropping unpublished device events")
		t.pending = nil
	}
	t.logger.Info().Msg("TelemetryService stopped successfully")
	return nil
}

func (t *TelemetryService) run() {
	retry := time.NewTicker(telemetryRetryInterval)
	defer retry.Stop()

	for {
		select {
		case pos := <-t.positions:
			if err := t.publish(t.positionTopic, pos); err != nil {
				t.logger.Warn().Err(err).Msg("Dropping position")
			}
		case ev := <-t.deviceEvents:
			t.pending = append(t.pending, ev)
			t.flushEvents()
		case <-retry.C:
			t.flushEvents()
		case <-t.ctx.Done():
			t.logger.Info().Msg("TelemetryService stopping gracefully")
			return
		}
	}
}

// flushEvents publishes the pending device events in order.
func (t *TelemetryService) flushEvents() {
	for len(t.pending) > 0 {
		if err := t.publish(t.eventTopic, t.pending[0]); err != nil {
			t.logger.Debug().Err(err).Int("pending", len(t.pending)).Msg("Device event publishing deferred")
			break
		}
		t.pending = t.pending[1:]
	}
	if over := len(t.pending) - maxPendingEvents; over > 0 {
		t.logger.Warn().Int("dropped", over).Msg("Too many pending device events, dropping the oldest")
		t.pending = t.pending[over:]
	}
}

func (t *TelemetryService) publish(name string, v interface{}) error {
	if !t.uplink.Connected() {
		return uplink.ErrNotConnected
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s message: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(t.ctx, telemetryPublishTimeout)
	defer cancel()
	topic := t.topic(name)
	if err := t.uplink.Publish(ctx, topic, byte(t.qos), false, payload); err != nil {
		return err
	}
	t.logger.Debug().Str("topic", topic).Msg("Telemetry published successfully")
	return nil
}
