// Package app holds the state shared by the agent services, built once at startup.
package app

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/internal/utils"
	"github.com/benmeehan/telematics-agent/pkg/file"
	"github.com/benmeehan/telematics-agent/pkg/identity"
	"github.com/benmeehan/telematics-agent/pkg/modem"
	"github.com/benmeehan/telematics-agent/pkg/modem/gnss"
	modemmqtt "github.com/benmeehan/telematics-agent/pkg/modem/mqtt"
	"github.com/benmeehan/telematics-agent/pkg/mqtt"
	"github.com/benmeehan/telematics-agent/pkg/uplink"
)

// Context is passed to every service instead of process wide globals.
type Context struct {
	Config     *utils.Config
	Logger     zerolog.Logger
	FileClient file.FileOperations

	Modem      *modem.Modem
	GNSS       *gnss.Service
	Uplink     uplink.Publisher
	DeviceInfo identity.DeviceInfoInterface

	// Event queues. Producers outside the agent core (accelerometer, camera, panic button)
	// only interact through Positions and DeviceEvents.
	Positions    *Queue[models.PositionEvent]
	DeviceEvents *Queue[models.DeviceEvent]
	Pings        *Queue[models.PingEvent]
	Network      *Queue[models.NetworkEvent]
}

// New builds the application context. The modem is created stopped.
func New(cfg *utils.Config, fileClient file.FileOperations, dialer modem.Dialer, logger zerolog.Logger) (*Context, error) {
	deviceInfo := identity.NewDeviceInfo(cfg.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		return nil, fmt.Errorf("load device identity: %w", err)
	}
	if err := deviceInfo.SetAgentVersion(constants.Version); err != nil {
		logger.Warn().Err(err).Msg("Agent version is not a semantic version")
	}

	m, err := modem.New(cfg.Modem, dialer, logger.With().Str("component", "modem").Logger())
	if err != nil {
		return nil, fmt.Errorf("create modem: %w", err)
	}

	ctx := &Context{
		Config:       cfg,
		Logger:       logger,
		FileClient:   fileClient,
		Modem:        m,
		GNSS:         gnss.New(m, logger.With().Str("component", "gnss").Logger()),
		DeviceInfo:   deviceInfo,
		Positions:    NewQueue[models.PositionEvent](constants.PositionQueueLength),
		DeviceEvents: NewQueue[models.DeviceEvent](constants.DeviceQueueLength),
		Pings:        NewQueue[models.PingEvent](constants.PingQueueLength),
		Network:      NewQueue[models.NetworkEvent](constants.NetworkQueueLength),
	}
	ctx.Uplink = ctx.newUplink()
	return ctx, nil
}

func (c *Context) newUplink() uplink.Publisher {
	u := c.Config.Uplink
	logger := c.Logger.With().Str("component", "uplink").Str("kind", u.Kind).Logger()
	clientID := u.ClientID
	if clientID == "" {
		clientID = "telematics-" + strings.Split(uuid.NewString(), "-")[0]
	}

	if u.Kind == utils.UplinkBroker {
		opts := mqtt.Options{
			Broker:        BrokerURL(u),
			ClientID:      clientID,
			Username:      u.Username,
			Password:      u.Password,
			CACertificate: u.CACertificate,
			KeepAlive:     u.KeepAlive,
			CleanSession:  u.CleanSession,
		}
		return uplink.NewBroker(opts, mqtt.NewMqttService(c.FileClient, logger), logger)
	}

	cfg := modemmqtt.Config{
		ClientID:     clientID,
		Broker:       u.Broker,
		Port:         u.Port,
		Username:     u.Username,
		Password:     u.Password,
		KeepAlive:    u.KeepAlive,
		CleanSession: u.CleanSession,
		QoS:          byte(u.QOS),
	}
	return uplink.NewCellular(cfg, modemmqtt.New(c.Modem, logger), c.Modem, logger)
}

// BrokerURL returns the paho broker address. A broker without scheme gets tcp:// or, when
// a CA certificate is configured, ssl://.
func BrokerURL(u utils.UplinkConfig) string {
	if strings.Contains(u.Broker, "://") {
		return u.Broker
	}
	scheme := "tcp"
	if u.CACertificate != "" {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, u.Broker, u.Port)
}

// Topic returns the full topic of name for this device.
func (c *Context) Topic(name string) string {
	return DeviceTopic(c.Config.Uplink.TopicPrefix, c.DeviceInfo.GetDeviceID(), name)
}

// DeviceTopic joins prefix, device id and name.
func DeviceTopic(prefix, deviceID, name string) string {
	if deviceID == "" {
		deviceID = "unknown"
	}
	return strings.Join([]string{strings.Trim(prefix, "/"), deviceID, strings.Trim(name, "/")}, "/")
}
