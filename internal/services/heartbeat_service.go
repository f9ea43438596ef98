package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"

	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/pkg/identity"
	"github.com/benmeehan/telematics-agent/pkg/modem"
	"github.com/benmeehan/telematics-agent/pkg/uplink"
)

const heartbeatQueryTimeout = 10 * time.Second

// SignalSource reports the state of the cellular link.
type SignalSource interface {
	SignalQuality(ctx context.Context) (modem.SignalQuality, error)
	Operator(ctx context.Context) (modem.Operator, error)
	LocalIP() string
}

// UptimeFunc returns the host uptime in seconds.
type UptimeFunc func(ctx context.Context) (uint64, error)

// HeartbeatService manages periodic heartbeat messages.
type HeartbeatService struct {
	PubTopic   string
	Interval   time.Duration
	DeviceInfo identity.DeviceInfoInterface
	QOS        int
	Uplink     uplink.Publisher
	Topic      TopicFunc
	Signal     SignalSource
	Uptime     UptimeFunc
	Logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHeartbeatService initializes a new HeartbeatService. Without a signal source the
// heartbeat carries no cellular link details.
func NewHeartbeatService(pubTopic string, interval time.Duration, deviceInfo identity.DeviceInfoInterface,
	qos int, up uplink.Publisher, topic TopicFunc, signal SignalSource, logger zerolog.Logger) *HeartbeatService {

	return &HeartbeatService{
		PubTopic:   pubTopic,
		Interval:   interval,
		DeviceInfo: deviceInfo,
		QOS:        qos,
		Uplink:     up,
		Topic:      topic,
		Signal:     signal,
		Uptime:     host.UptimeWithContext,
		Logger:     logger,
	}
}

// Start launches the heartbeat loop in a separate goroutine.
func (h *HeartbeatService) Start() error {
	if h.ctx != nil {
		h.Logger.Warn().Msg("HeartbeatService is already running")
		return errors.New("heartbeat service is already running")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runHeartbeatLoop()
	}()

	h.Logger.Info().Str("topic", h.PubTopic).Msg("HeartbeatService started successfully")
	return nil
}

// Stop gracefully stops the heartbeat service.
func (h *HeartbeatService) Stop() error {
	if h.ctx == nil {
		h.Logger.Warn().Msg("HeartbeatService is not running")
		return errors.New("heartbeat service is not running")
	}

	h.cancel()
	h.wg.Wait()

	h.ctx = nil
	h.cancel = nil

	h.Logger.Info().Msg("HeartbeatService stopped successfully")
	return nil
}

// runHeartbeatLoop continuously sends heartbeat messages at the specified interval.
func (h *HeartbeatService) runHeartbeatLoop() {
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !h.Uplink.Connected() {
				h.Logger.Debug().Msg("Uplink not connected, skipping heartbeat")
				continue
			}

			payload, err := json.Marshal(h.buildHeartbeat())
			if err != nil {
				h.Logger.Error().Err(err).Msg("Failed to serialize heartbeat message")
				continue
			}

			ctx, cancel := context.WithTimeout(h.ctx, h.Interval)
			err = h.Uplink.Publish(ctx, h.Topic(h.PubTopic), byte(h.QOS), false, payload)
			cancel()

			if err != nil {
				h.Logger.Error().Err(err).Msg("Failed to publish heartbeat message")
			} else {
				h.Logger.Debug().Msg("Heartbeat published successfully")
			}

		case <-h.ctx.Done():
			h.Logger.Info().Msg("HeartbeatService stopping gracefully")
			return
		}
	}
}

// buildHeartbeat snapshots the device state. Failing modem queries only leave fields out.
func (h *HeartbeatService) buildHeartbeat() models.Heartbeat {
	ctx, cancel := context.WithTimeout(h.ctx, heartbeatQueryTimeout)
	defer cancel()

	hb := models.Heartbeat{
		DeviceID:  h.DeviceInfo.GetDeviceID(),
		Timestamp: time.Now().UTC(),
		Status:    constants.StatusAlive,
	}
	if id := h.DeviceInfo.GetDeviceIdentity(); id != nil {
		hb.AgentVersion = id.AgentVersion
	}

	if h.Uptime != nil {
		if uptime, err := h.Uptime(ctx); err == nil {
			hb.Uptime = uptime
		} else {
			h.Logger.Debug().Err(err).Msg("Failed to read host uptime")
		}
	}

	if h.Signal == nil {
		return hb
	}
	hb.LocalIP = h.Signal.LocalIP()
	if sq, err := h.Signal.SignalQuality(ctx); err == nil {
		hb.Signal = &models.Signal{RSSI: sq.RSSI, DBm: sq.DBm, BER: sq.BER, Quality: sq.Category.String()}
		if sq.Category == modem.SignalNone || sq.Category == modem.SignalUnknown {
			hb.Status = constants.StatusDegraded
		}
	} else {
		h.Logger.Warn().Err(err).Msg("Failed to query signal quality")
	}
	if op, err := h.Signal.Operator(ctx); err == nil {
		hb.Operator = op.Name
	} else {
		h.Logger.Warn().Err(err).Msg("Failed to query operator")
	}
	return hb
}
