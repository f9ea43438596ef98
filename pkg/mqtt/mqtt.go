package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/pkg/file"
)

// ErrNotInitialized is returned when the client is used before Initialize.
var ErrNotInitialized = errors.New("mqtt client is not initialized")

// MQTTClient defines the interface for an MQTT client.
type MQTTClient interface {
	Connect() mqtt.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// Options configures the broker connection.
type Options struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	CACertificate string
	KeepAlive     time.Duration
	CleanSession  bool
	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration
}

// MqttService is the broker uplink used when the host has its own IP connectivity.
type MqttService struct {
	client     MQTTClient
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations, logger zerolog.Logger) *MqttService {
	return &MqttService{
		fileClient: fileClient,
		logger:     logger,
	}
}

// NewMqttServiceWithClient wraps an already built client.
func NewMqttServiceWithClient(client MQTTClient, logger zerolog.Logger) *MqttService {
	return &MqttService{
		client: client,
		logger: logger,
	}
}

// Initialize builds the paho client from opts and connects it.
func (s *MqttService) Initialize(ctx context.Context, opts Options) error {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(opts.CleanSession)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}
	if opts.KeepAlive > 0 {
		clientOpts.SetKeepAlive(opts.KeepAlive)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}

	if opts.CACertificate != "" {
		tlsConfig, err := s.tlsConfig(opts.CACertificate)
		if err != nil {
			return err
		}
		clientOpts.SetTLSConfig(tlsConfig)
	}

	clientOpts.SetOnConnectHandler(func(mqtt.Client) {
		s.logger.Info().Str("broker", opts.Broker).Msg("Connected to MQTT broker")
	})
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn().Err(err).Str("broker", opts.Broker).Msg("MQTT connection lost")
	})

	s.client = mqtt.NewClient(clientOpts)
	return s.Connect(ctx)
}

func (s *MqttService) tlsConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := s.fileClient.ReadFileRaw(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to append CA certificate")
	}
	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// Connect connects to the MQTT broker.
func (s *MqttService) Connect(ctx context.Context) error {
	if s.client == nil {
		return ErrNotInitialized
	}
	return Wait(ctx, s.client.Connect())
}

// IsConnected reports whether the client currently holds a broker connection.
func (s *MqttService) IsConnected() bool {
	return s.client != nil && s.client.IsConnected()
}

// Publish sends a message to the specified topic and waits for its delivery to the broker.
func (s *MqttService) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	if s.client == nil {
		return ErrNotInitialized
	}
	return Wait(ctx, s.client.Publish(topic, qos, retained, payload))
}

// Subscribe subscribes to the specified topic with a message handler.
func (s *MqttService) Subscribe(ctx context.Context, topic string, qos byte, callback mqtt.MessageHandler) error {
	if s.client == nil {
		return ErrNotInitialized
	}
	return Wait(ctx, s.client.Subscribe(topic, qos, callback))
}

// Unsubscribe unsubscribes from the specified topics.
func (s *MqttService) Unsubscribe(ctx context.Context, topics ...string) error {
	if s.client == nil {
		return ErrNotInitialized
	}
	return Wait(ctx, s.client.Unsubscribe(topics...))
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	if s.client != nil {
		s.client.Disconnect(quiesce)
	}
}

// Wait blocks until token completes or ctx is done.
func Wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
