package uplink

import (
	"context"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/pkg/mqtt"
)

// BrokerClient is the paho based client used by Broker.
type BrokerClient interface {
	Initialize(ctx context.Context, opts mqtt.Options) error
	Connect(ctx context.Context) error
	IsConnected() bool
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
	Subscribe(ctx context.Context, topic string, qos byte, callback paho.MessageHandler) error
	Disconnect(quiesce uint)
}

// Broker publishes over the host network.
type Broker struct {
	opts   mqtt.Options
	client BrokerClient
	logger zerolog.Logger

	subscriptions cmap.ConcurrentMap[string, subscription]
	mu            sync.Mutex
	initialized   bool
}

// NewBroker creates a broker uplink.
func NewBroker(opts mqtt.Options, client BrokerClient, logger zerolog.Logger) *Broker {
	return &Broker{
		opts:          opts,
		client:        client,
		logger:        logger,
		subscriptions: cmap.New[subscription](),
	}
}

// Connect creates the client on first use, connects it and restores the subscriptions.
func (b *Broker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.initialized:
		if err := b.client.Initialize(ctx, b.opts); err != nil {
			return err
		}
		b.initialized = true
	case b.client.IsConnected():
		return nil
	default:
		if err := b.client.Connect(ctx); err != nil {
			return err
		}
	}

	for item := range b.subscriptions.IterBuffered() {
		if err := b.subscribe(ctx, item.Key, item.Val); err != nil {
			b.logger.Error().Err(err).Str("topic", item.Key).Msg("Failed to restore subscription")
			return err
		}
	}
	b.logger.Info().Str("broker", b.opts.Broker).Msg("Broker uplink connected")
	return nil
}

// Connected reports whether the client holds a broker connection.
func (b *Broker) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized && b.client.IsConnected()
}

// Publish sends payload to the broker.
func (b *Broker) Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error {
	if !b.Connected() {
		return ErrNotConnected
	}
	return b.client.Publish(ctx, topic, qos, retain, payload)
}

// Subscribe registers handler for topic. The subscription is sent to the broker now when
// connected, otherwise on the next Connect.
func (b *Broker) Subscribe(ctx context.Context, topic string, qos byte, handler Handler) error {
	sub := subscription{qos: qos, handler: handler}
	b.subscriptions.Set(topic, sub)
	if !b.Connected() {
		return nil
	}
	return b.subscribe(ctx, topic, sub)
}

func (b *Broker) subscribe(ctx context.Context, topic string, sub subscription) error {
	return b.client.Subscribe(ctx, topic, sub.qos, func(_ paho.Client, msg paho.Message) {
		sub.handler(msg.Topic(), msg.Payload())
	})
}

// Close disconnects from the broker.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		b.client.Disconnect(250)
	}
	return nil
}
