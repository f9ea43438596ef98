// Package mqtt drives the MQTT client embedded in the modem (AT+SM*).
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

// defaultKeepAlive is the keep time the modem uses when none is configured.
const defaultKeepAlive = 60 * time.Second

var (
	// ErrModemGone is returned when the modem the client was created for is no longer running.
	ErrModemGone = errors.New("modem is not running")
	// ErrMissingBroker is returned by Configure without a broker address.
	ErrMissingBroker = errors.New("missing mqtt broker address")
	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("invalid mqtt topic")
)

// Config holds the broker parameters written with AT+SMCONF.
type Config struct {
	ClientID     string        `yaml:"client_id"`
	Broker       string        `yaml:"broker"`
	Port         int           `yaml:"port"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	KeepAlive    time.Duration `yaml:"keep_alive"`
	CleanSession bool          `yaml:"clean_session"`
	QoS          byte          `yaml:"qos"`
}

// Modem is the part of the orchestrator the client needs. The client does not own it.
type Modem interface {
	Alive() bool
	Execute(ctx context.Context, req atcmd.Request, res *atcmd.Result) error
	Transaction(ctx context.Context, fn func(tx *modem.Tx) error) error
	SetStatus(f modem.Status, on bool)
}

// Client is the modem MQTT client. Inbound messages arrive as modem.EventMessage events.
type Client struct {
	modem  Modem
	logger zerolog.Logger
}

// New creates a client on top of m.
func New(m Modem, logger zerolog.Logger) *Client {
	return &Client{
		modem:  m,
		logger: logger,
	}
}

func (c *Client) execute(ctx context.Context, req atcmd.Request) (*atcmd.Result, error) {
	if !c.modem.Alive() {
		return nil, ErrModemGone
	}
	res := atcmd.NewResult()
	return res, c.modem.Execute(ctx, req, res)
}

// Configure writes the broker parameters. Optional parameters left at their zero value
// keep the modem defaults.
func (c *Client) Configure(ctx context.Context, cfg Config) error {
	if cfg.Broker == "" {
		c.logger.Error().Msg("Missing MQTT broker address")
		return ErrMissingBroker
	}

	params := []string{fmt.Sprintf(`="URL","%s"`, cfg.Broker)}
	if cfg.Port != 0 {
		params[0] = fmt.Sprintf(`="URL","%s",%d`, cfg.Broker, cfg.Port)
	}
	if cfg.ClientID != "" {
		params = append(params, fmt.Sprintf(`="CLIENTID","%s"`, cfg.ClientID))
	}
	if cfg.Username != "" {
		params = append(params, fmt.Sprintf(`="USERNAME","%s"`, cfg.Username))
	}
	if cfg.Password != "" {
		params = append(params, fmt.Sprintf(`="PASSWORD","%s"`, cfg.Password))
	}
	if cfg.KeepAlive != 0 && cfg.KeepAlive != defaultKeepAlive {
		params = append(params, fmt.Sprintf(`="KEEPTIME",%d`, int(cfg.KeepAlive.Seconds())))
	}
	if cfg.CleanSession {
		params = append(params, `="CLEANSS",1`)
	}
	if cfg.QoS != 0 {
		params = append(params, fmt.Sprintf(`="QOS",%d`, cfg.QoS))
	}

	for _, p := range params {
		if _, err := c.execute(ctx, atcmd.Request{Command: atcmd.SMCONF, Params: p}); err != nil {
			c.logger.Error().Err(err).Str("param", p[1:]).Msg("Failed to set MQTT configuration")
			return fmt.Errorf("configure mqtt: %w", err)
		}
	}
	return nil
}

// Connected reports whether the modem client is connected to the broker.
func (c *Client) Connected(ctx context.Context) (bool, error) {
	res, err := c.execute(ctx, atcmd.Request{Command: atcmd.SMSTATE, Params: "?"})
	if err != nil {
		return false, fmt.Errorf("query mqtt state: %w", err)
	}
	return parseState(res)
}

func parseState(res *atcmd.Result) (bool, error) {
	params, ok := res.Params("+SMSTATE:")
	if !ok {
		return false, fmt.Errorf("%w: %q", modem.ErrMalformedResponse, res.Response)
	}
	// 2 means connected with a resumed session
	return params == "1" || params == "2", nil
}

// Connect brings the network up and connects to the configured broker. It does nothing when
// the client is already connected.
func (c *Client) Connect(ctx context.Context) error {
	if !c.modem.Alive() {
		return ErrModemGone
	}
	return c.modem.Transaction(ctx, func(tx *modem.Tx) error {
		res := atcmd.NewResult()
		if err := tx.Execute(ctx, atcmd.Request{Command: atcmd.SMSTATE, Params: "?"}, res); err != nil {
			return fmt.Errorf("query mqtt state: %w", err)
		}
		connected, err := parseState(res)
		if err != nil {
			return err
		}
		if connected {
			c.logger.Debug().Msg("MQTT client is already connected")
			tx.SetStatus(modem.StatusMQTTEnabled, true)
			return nil
		}

		if err := tx.ActivateNetwork(ctx); err != nil {
			c.logger.Error().Err(err).Msg("Failed to activate network")
			return err
		}
		if err := tx.ActivateAppNetwork(ctx); err != nil {
			c.logger.Error().Err(err).Msg("Failed to activate application network")
			return err
		}

		c.logger.Info().Msg("Connecting to MQTT broker")
		if err := tx.Execute(ctx, atcmd.Request{Command: atcmd.SMCONN}, res); err != nil {
			c.logger.Error().Err(err).Msg("Failed to connect to MQTT broker")
			return fmt.Errorf("connect mqtt: %w", err)
		}
		tx.SetStatus(modem.StatusMQTTEnabled, true)
		c.logger.Info().Msg("MQTT connection successful")
		return nil
	})
}

// Disconnect closes the broker connection if there is one.
func (c *Client) Disconnect(ctx context.Context) error {
	connected, err := c.Connected(ctx)
	if err != nil {
		return err
	}
	if !connected {
		c.logger.Debug().Msg("MQTT client is already disconnected")
		c.modem.SetStatus(modem.StatusMQTTEnabled, false)
		return nil
	}

	if _, err := c.execute(ctx, atcmd.Request{Command: atcmd.SMDISC}); err != nil {
		c.logger.Error().Err(err).Msg("Failed to disconnect from MQTT broker")
		return fmt.Errorf("disconnect mqtt: %w", err)
	}
	c.modem.SetStatus(modem.StatusMQTTEnabled, false)
	return nil
}

// Publish sends payload to topic. The payload is uploaded after the modem prompt.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if payload == nil {
		payload = []byte{}
	}
	req := atcmd.Request{
		Command: atcmd.SMPUB,
		Params:  fmt.Sprintf(`="%s",%d,%d,%d`, topic, len(payload), qos, boolInt(retain)),
		Payload: payload,
	}
	if _, err := c.execute(ctx, req); err != nil {
		c.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish MQTT message")
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe subscribes to topic.
func (c *Client) Subscribe(ctx context.Context, topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	req := atcmd.Request{Command: atcmd.SMSUB, Params: fmt.Sprintf(`="%s",%d`, topic, qos)}
	if _, err := c.execute(ctx, req); err != nil {
		c.logger.Error().Err(err).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// Unsubscribe removes the subscription to topic.
func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	req := atcmd.Request{Command: atcmd.SMUNSUB, Params: fmt.Sprintf(`="%s"`, topic)}
	if _, err := c.execute(ctx, req); err != nil {
		c.logger.Error().Err(err).Str("topic", topic).Msg("Failed to unsubscribe from MQTT topic")
		return fmt.Errorf("unsubscribe %s: %w", topic, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
