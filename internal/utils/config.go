package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/pkg/file"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

// EnvPrefix prefixes every environment override, e.g. AGENT_MODEM_PORT.
const EnvPrefix = "AGENT_"

const (
	UplinkModem  = "modem"
	UplinkBroker = "broker"
)

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the structure of the configuration file.
type Config struct {
	Log struct {
		Level   string `yaml:"level" env:"LOG_LEVEL"`     // zerolog level name
		Console bool   `yaml:"console" env:"LOG_CONSOLE"` // Human readable output instead of JSON
	} `yaml:"log"`

	Identity struct {
		DeviceFile string `yaml:"device_file" env:"IDENTITY_FILE"` // Path to the device identity file
	} `yaml:"identity"`

	Modem modem.Config `yaml:"modem"`

	GNSS struct {
		URCInterval int  `yaml:"urc_interval" env:"GNSS_URC_INTERVAL"` // Seconds between +UGNSINF reports, 0 disables them
		NMEAOutput  bool `yaml:"nmea_output" env:"GNSS_NMEA_OUTPUT"`   // Stream raw NMEA sentences
	} `yaml:"gnss"`

	Uplink UplinkConfig `yaml:"uplink"`

	Services struct {
		Network struct {
			RetryDelay     time.Duration `yaml:"retry_delay" env:"NETWORK_RETRY_DELAY"`         // Initial delay between bring-up attempts
			MaxBackoff     time.Duration `yaml:"max_backoff" env:"NETWORK_MAX_BACKOFF"`         // Maximum delay between bring-up attempts
			ConnectTimeout time.Duration `yaml:"connect_timeout" env:"NETWORK_CONNECT_TIMEOUT"` // Timeout of one bring-up attempt
		} `yaml:"network"`

		Location struct {
			Enabled  bool          `yaml:"enabled" env:"LOCATION_ENABLED"`
			Interval time.Duration `yaml:"interval" env:"LOCATION_INTERVAL"` // Interval between position reports
			Sensor   struct {
				Enabled  bool   `yaml:"enabled" env:"LOCATION_SENSOR_ENABLED"`
				Port     string `yaml:"port" env:"LOCATION_SENSOR_PORT"`           // UNIX port where the GPS sensor is mounted
				BaudRate int    `yaml:"baud_rate" env:"LOCATION_SENSOR_BAUD_RATE"` // The baud rate of the GPS sensor
			} `yaml:"sensor"`
			CellTower struct {
				Enabled    bool   `yaml:"enabled" env:"LOCATION_CELL_ENABLED"`
				MapsAPIKey string `yaml:"maps_api_key" env:"LOCATION_MAPS_API_KEY"` // Google maps API key
				ScanWiFi   bool   `yaml:"scan_wifi" env:"LOCATION_SCAN_WIFI"`
			} `yaml:"cell_tower"`
		} `yaml:"location"`

		Telemetry struct {
			Enabled       bool   `yaml:"enabled" env:"TELEMETRY_ENABLED"`
			PositionTopic string `yaml:"position_topic" env:"TELEMETRY_POSITION_TOPIC"`
			EventTopic    string `yaml:"event_topic" env:"TELEMETRY_EVENT_TOPIC"`
			QOS           int    `yaml:"qos" env:"TELEMETRY_QOS"`
		} `yaml:"telemetry"`

		Heartbeat struct {
			Enabled  bool          `yaml:"enabled" env:"HEARTBEAT_ENABLED"`
			Topic    string        `yaml:"topic" env:"HEARTBEAT_TOPIC"`
			Interval time.Duration `yaml:"interval" env:"HEARTBEAT_INTERVAL"`
			QOS      int           `yaml:"qos" env:"HEARTBEAT_QOS"`
		} `yaml:"heartbeat"`

		Metrics struct {
			Enabled  bool                 `yaml:"enabled" env:"METRICS_ENABLED"`
			Topic    string               `yaml:"topic" env:"METRICS_TOPIC"`
			Interval time.Duration        `yaml:"interval" env:"METRICS_INTERVAL"`
			Timeout  time.Duration        `yaml:"timeout" env:"METRICS_TIMEOUT"` // Timeout for collecting metrics
			QOS      int                  `yaml:"qos" env:"METRICS_QOS"`
			Monitor  models.MetricsConfig `yaml:"monitor"`
		} `yaml:"metrics"`

		Message struct {
			Enabled   bool   `yaml:"enabled" env:"MESSAGE_ENABLED"`
			PingTopic string `yaml:"ping_topic" env:"MESSAGE_PING_TOPIC"`
			PongTopic string `yaml:"pong_topic" env:"MESSAGE_PONG_TOPIC"`
			QOS       int    `yaml:"qos" env:"MESSAGE_QOS"`
		} `yaml:"message"`
	} `yaml:"services"`
}

// UplinkConfig selects and configures the MQTT connection.
type UplinkConfig struct {
	Kind          string        `yaml:"kind" env:"UPLINK_KIND"` // modem or broker
	Broker        string        `yaml:"broker" env:"UPLINK_BROKER"`
	Port          int           `yaml:"port" env:"UPLINK_PORT"`
	ClientID      string        `yaml:"client_id" env:"UPLINK_CLIENT_ID"`
	Username      string        `yaml:"username" env:"UPLINK_USERNAME"`
	Password      string        `yaml:"password" env:"UPLINK_PASSWORD"`
	KeepAlive     time.Duration `yaml:"keep_alive" env:"UPLINK_KEEP_ALIVE"`
	CleanSession  bool          `yaml:"clean_session" env:"UPLINK_CLEAN_SESSION"`
	QOS           int           `yaml:"qos" env:"UPLINK_QOS"`
	CACertificate string        `yaml:"ca_certificate" env:"UPLINK_CA_CERTIFICATE"` // Path to the CA certificate, broker uplink only
	TopicPrefix   string        `yaml:"topic_prefix" env:"UPLINK_TOPIC_PREFIX"`     // Topics are <prefix>/<device id>/<name>
}

// LoadConfig loads the YAML configuration from the specified file, applies the AGENT_*
// environment overrides and the defaults, and validates the result.
// A missing file is not an error, the agent can be configured from the environment alone.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	return loadConfig(filename, fileClient, env.Options{Prefix: EnvPrefix})
}

func loadConfig(filename string, fileClient file.FileOperations, opts env.Options) (*Config, error) {
	var config Config
	if filename != "" {
		err := fileClient.ReadYamlFile(filename, &config)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := env.Parse(&config, opts); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Identity.DeviceFile == "" {
		c.Identity.DeviceFile = "/var/lib/telematics-agent/identity.json"
	}

	u := &c.Uplink
	if u.Kind == "" {
		u.Kind = UplinkModem
	}
	if u.Port == 0 {
		u.Port = 1883
	}
	if u.KeepAlive == 0 {
		u.KeepAlive = 60 * time.Second
	}
	if u.TopicPrefix == "" {
		u.TopicPrefix = "vehicles"
	}

	s := &c.Services
	if s.Network.RetryDelay == 0 {
		s.Network.RetryDelay = 5 * time.Second
	}
	if s.Network.MaxBackoff == 0 {
		s.Network.MaxBackoff = 2 * time.Minute
	}
	if s.Network.ConnectTimeout == 0 {
		s.Network.ConnectTimeout = 3 * time.Minute
	}
	if s.Location.Interval == 0 {
		s.Location.Interval = 20 * time.Second
	}
	if s.Location.Sensor.BaudRate == 0 {
		s.Location.Sensor.BaudRate = 9600
	}
	if s.Telemetry.PositionTopic == "" {
		s.Telemetry.PositionTopic = "positions"
	}
	if s.Telemetry.EventTopic == "" {
		s.Telemetry.EventTopic = "events"
	}
	if s.Heartbeat.Topic == "" {
		s.Heartbeat.Topic = "heartbeat"
	}
	if s.Heartbeat.Interval == 0 {
		s.Heartbeat.Interval = time.Minute
	}
	if s.Metrics.Topic == "" {
		s.Metrics.Topic = "metrics"
	}
	if s.Metrics.Interval == 0 {
		s.Metrics.Interval = 5 * time.Minute
	}
	if s.Metrics.Timeout == 0 {
		s.Metrics.Timeout = 10 * time.Second
	}
	if s.Message.PingTopic == "" {
		s.Message.PingTopic = "ping"
	}
	if s.Message.PongTopic == "" {
		s.Message.PongTopic = "pong"
	}
}

func (c *Config) validate() error {
	switch c.Uplink.Kind {
	case UplinkModem, UplinkBroker:
	default:
		return fmt.Errorf("%w: unknown uplink kind %q", ErrInvalidConfig, c.Uplink.Kind)
	}
	if c.Uplink.Broker == "" {
		return fmt.Errorf("%w: uplink broker is required", ErrInvalidConfig)
	}
	if c.Uplink.CACertificate != "" && c.Uplink.Kind != UplinkBroker {
		return fmt.Errorf("%w: ca_certificate is only supported by the broker uplink", ErrInvalidConfig)
	}
	if c.GNSS.URCInterval < 0 || c.GNSS.URCInterval > 255 {
		return fmt.Errorf("%w: gnss urc_interval %d out of range 0-255", ErrInvalidConfig, c.GNSS.URCInterval)
	}

	for name, qos := range map[string]int{
		"uplink":    c.Uplink.QOS,
		"telemetry": c.Services.Telemetry.QOS,
		"heartbeat": c.Services.Heartbeat.QOS,
		"metrics":   c.Services.Metrics.QOS,
		"message":   c.Services.Message.QOS,
	} {
		if qos < 0 || qos > 2 {
			return fmt.Errorf("%w: %s qos %d out of range 0-2", ErrInvalidConfig, name, qos)
		}
	}

	loc := c.Services.Location
	if loc.Sensor.Enabled && loc.Sensor.Port == "" {
		return fmt.Errorf("%w: location sensor port is required", ErrInvalidConfig)
	}
	if loc.CellTower.Enabled && loc.CellTower.MapsAPIKey == "" {
		return fmt.Errorf("%w: maps_api_key is required for cell tower location", ErrInvalidConfig)
	}
	return nil
}
