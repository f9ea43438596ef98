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
	"github.com/benmeehan/telematics-agent/pkg/identity"
	"github.com/benmeehan/telematics-agent/pkg/uplink"
)

const messagePublishTimeout = 30 * time.Second

// pingRequest is the payload published by the backend on the ping topic.
type pingRequest struct {
	Timestamp *uint64 `json:"timestamp"`
}

// MessageService answers the backend pings. Received pings go through the ping queue and
// are answered with a pong carrying the ping timestamp.
type MessageService struct {
	// Configuration fields
	pingTopic string
	pongTopic string
	qos       int

	// Dependencies
	uplink     uplink.Publisher
	topic      TopicFunc
	deviceInfo identity.DeviceInfoInterface
	pings      Sink[models.PingEvent]
	received   <-chan models.PingEvent
	logger     zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewMessageService creates a MessageService. pings and received are the two ends of the
// ping queue.
func NewMessageService(pingTopic, pongTopic string, qos int, up uplink.Publisher, topic TopicFunc,
	deviceInfo identity.DeviceInfoInterface, pings Sink[models.PingEvent], received <-chan models.PingEvent,
	logger zerolog.Logger) *MessageService {
	return &MessageService{
		pingTopic:  pingTopic,
		pongTopic:  pongTopic,
		qos:        qos,
		uplink:     up,
		topic:      topic,
		deviceInfo: deviceInfo,
		pings:      pings,
		received:   received,
		logger:     logger,
	}
}

// Start subscribes to the ping topic and launches the pong loop. The subscription is kept by
// the uplink and sent again on every reconnection.
func (s *MessageService) Start() error {
	if s.running {
		s.logger.Warn().Msg("MessageService is already running")
		return errors.New("message service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	topic := s.topic(s.pingTopic)
	if err := s.uplink.Subscribe(s.ctx, topic, byte(s.qos), s.handlePing); err != nil {
		s.cancel()
		s.logger.Error().Err(err).Str("topic", topic).Msg("Failed to subscribe to ping topic")
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()

	s.logger.Info().Str("topic", topic).Msg("MessageService started successfully")
	return nil
}

// Stop gracefully stops the message service.
func (s *MessageService) Stop() error {
	if !s.running {
		s.logger.Warn().Msg("MessageService is not running")
		return errors.New("message service is not running")
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.logger.Info().Msg("MessageService stopped successfully")
	return nil
}

func (s *MessageService) handlePing(topic string, payload []byte) {
	var req pingRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Timestamp == nil {
		s.logger.Warn().Str("topic", topic).Bytes("payload", payload).Msg("Ignoring malformed ping")
		return
	}
	s.pings.Offer(models.PingEvent{PingTimestamp: *req.Timestamp, Timestamp: time.Now().UTC()})
	s.logger.Debug().Uint64("ping_timestamp", *req.Timestamp).Msg("Ping received")
}

func (s *MessageService) run() {
	for {
		select {
		case ping := <-s.received:
			if err := s.sendPong(ping); err != nil {
				s.logger.Error().Err(err).Msg("Failed to publish pong")
			}
		case <-s.ctx.Done():
			s.logger.Info().Msg("MessageService stopping gracefully")
			return
		}
	}
}

func (s *MessageService) sendPong(ping models.PingEvent) error {
	payload, err := json.Marshal(models.Pong{
		DeviceID:      s.deviceInfo.GetDeviceID(),
		PingTimestamp: ping.PingTimestamp,
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize pong: %w", err)
	}

	ctx, cancel := context.WithTimeout(s.ctx, messagePublishTimeout)
	defer cancel()
	if err := s.uplink.Publish(ctx, s.topic(s.pongTopic), byte(s.qos), false, payload); err != nil {
		return err
	}
	s.logger.Debug().Uint64("ping_timestamp", ping.PingTimestamp).Msg("Pong published successfully")
	return nil
}
