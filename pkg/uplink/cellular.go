package uplink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/pkg/modem"
	modemmqtt "github.com/benmeehan/telematics-agent/pkg/modem/mqtt"
)

const (
	cellularSubscriber = "uplink"
	cellularBuffer     = 32
)

// ModemClient is the modem MQTT client used by Cellular.
type ModemClient interface {
	Configure(ctx context.Context, cfg modemmqtt.Config) error
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error
	Subscribe(ctx context.Context, topic string, qos byte) error
}

// EventSource delivers the modem events.
type EventSource interface {
	Subscribe(name string, buffer int) <-chan modem.Event
	Unsubscribe(name string)
}

type subscription struct {
	qos     byte
	handler Handler
}

// Cellular publishes through the MQTT client of the modem. Messages received by the modem
// arrive as +SMSUB notifications and are routed to the handler of the matching subscription.
type Cellular struct {
	// Configuration fields
	cfg modemmqtt.Config

	// Dependencies
	client ModemClient
	events EventSource
	logger zerolog.Logger

	// Internal state management
	subscriptions cmap.ConcurrentMap[string, subscription]
	connected     atomic.Bool
	mu            sync.Mutex
	dispatching   bool
	wg            sync.WaitGroup
}

// NewCellular creates a modem backed uplink.
func NewCellular(cfg modemmqtt.Config, client ModemClient, events EventSource, logger zerolog.Logger) *Cellular {
	return &Cellular{
		cfg:           cfg,
		client:        client,
		events:        events,
		logger:        logger,
		subscriptions: cmap.New[subscription](),
	}
}

// Connect configures the modem client, connects it and restores the subscriptions.
func (c *Cellular) Connect(ctx context.Context) error {
	c.startDispatch()

	if err := c.client.Configure(ctx, c.cfg); err != nil {
		return err
	}
	if err := c.client.Connect(ctx); err != nil {
		return err
	}
	c.connected.Store(true)

	for item := range c.subscriptions.IterBuffered() {
		if err := c.client.Subscribe(ctx, item.Key, item.Val.qos); err != nil {
			c.logger.Error().Err(err).Str("topic", item.Key).Msg("Failed to restore subscription")
			return err
		}
	}
	c.logger.Info().Str("broker", c.cfg.Broker).Int("subscriptions", c.subscriptions.Count()).Msg("Cellular uplink connected")
	return nil
}

// Connected reports whether the modem client is believed to be connected.
func (c *Cellular) Connected() bool {
	return c.connected.Load()
}

// Publish sends payload through the modem.
func (c *Cellular) Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.client.Publish(ctx, topic, payload, qos, retain)
}

// Subscribe registers handler for topic. The subscription is sent to the broker now when
// connected, otherwise on the next Connect.
func (c *Cellular) Subscribe(ctx context.Context, topic string, qos byte, handler Handler) error {
	c.subscriptions.Set(topic, subscription{qos: qos, handler: handler})
	if !c.Connected() {
		return nil
	}
	return c.client.Subscribe(ctx, topic, qos)
}

// Close disconnects from the broker and stops routing messages.
func (c *Cellular) Close() error {
	var err error
	if c.connected.Swap(false) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = c.client.Disconnect(ctx)
		cancel()
	}

	c.mu.Lock()
	if c.dispatching {
		c.events.Unsubscribe(cellularSubscriber)
		c.dispatching = false
	}
	c.mu.Unlock()
	c.wg.Wait()
	return err
}

func (c *Cellular) startDispatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dispatching {
		return
	}
	c.dispatching = true
	events := c.events.Subscribe(cellularSubscriber, cellularBuffer)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range events {
			c.handleEvent(ev)
		}
	}()
}

func (c *Cellular) handleEvent(ev modem.Event) {
	switch ev.Kind {
	case modem.EventMessage:
		c.route(ev.Message)
	case modem.EventMQTTState, modem.EventAppNetwork:
		if !ev.Active && c.connected.Swap(false) {
			c.logger.Warn().Str("event", ev.Kind.String()).Msg("Cellular uplink lost its broker connection")
		}
	case modem.EventPDPDeactivated, modem.EventStopped:
		if c.connected.Swap(false) {
			c.logger.Warn().Str("event", ev.Kind.String()).Msg("Cellular uplink lost its broker connection")
		}
	}
}

func (c *Cellular) route(msg modem.Message) {
	delivered := false
	for item := range c.subscriptions.IterBuffered() {
		if TopicMatches(item.Key, msg.Topic) {
			item.Val.handler(msg.Topic, msg.Payload)
			delivered = true
		}
	}
	if !delivered {
		c.logger.Debug().Str("topic", msg.Topic).Msg("Dropping message without subscription")
	}
}
