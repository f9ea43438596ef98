package modem

import (
	"fmt"
	"time"
)

// APNConfig describes the packet data context used for cellular data.
type APNConfig struct {
	Name     string `yaml:"name" env:"APN"`
	User     string `yaml:"user" env:"APN_USER"`
	Password string `yaml:"password" env:"APN_PASSWORD"`
	CID      int    `yaml:"cid" env:"APN_CID"`
}

// Config holds the settings of the modem orchestrator.
type Config struct {
	Port           string        `yaml:"port" env:"MODEM_PORT"`
	BaudRate       int           `yaml:"baud_rate" env:"MODEM_BAUD_RATE"`
	AutoDetect     bool          `yaml:"auto_detect" env:"MODEM_AUTO_DETECT"`
	ReadBufferSize int           `yaml:"read_buffer" env:"MODEM_READ_BUFFER"`
	MaxLineBuffer  int           `yaml:"max_line_buffer" env:"MODEM_MAX_LINE_BUFFER"`
	EventQueue     int           `yaml:"event_queue" env:"MODEM_EVENT_QUEUE"`
	InitRetries    int           `yaml:"init_retries" env:"MODEM_INIT_RETRIES"`
	InitRetryDelay time.Duration `yaml:"init_retry_delay" env:"MODEM_INIT_RETRY_DELAY"`
	StateTimeout   time.Duration `yaml:"state_timeout" env:"MODEM_STATE_TIMEOUT"`
	AppNetwork     bool          `yaml:"app_network" env:"MODEM_APP_NETWORK"`
	APN            APNConfig     `yaml:"apn"`
}

func (c *Config) setDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = 115200
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 1024
	}
	if c.EventQueue == 0 {
		c.EventQueue = 16
	}
	if c.InitRetries == 0 {
		c.InitRetries = 5
	}
	if c.InitRetryDelay == 0 {
		c.InitRetryDelay = time.Second
	}
	if c.StateTimeout == 0 {
		c.StateTimeout = time.Second
	}
	if c.APN.CID == 0 {
		c.APN.CID = 1
	}
}

func (c *Config) validate() error {
	if c.APN.Name == "" {
		return fmt.Errorf("%w: apn name is required", ErrInvalidConfig)
	}
	if c.APN.CID < 1 || c.APN.CID > 24 {
		return fmt.Errorf("%w: apn cid %d out of range", ErrInvalidConfig, c.APN.CID)
	}
	if len(c.APN.Name) > 63 || len(c.APN.User) > 31 || len(c.APN.Password) > 31 {
		return fmt.Errorf("%w: apn credentials too long", ErrInvalidConfig)
	}
	return nil
}
