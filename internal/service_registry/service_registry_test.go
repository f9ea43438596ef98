package service_registry

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telematics-agent/internal/app"
	"github.com/benmeehan/telematics-agent/internal/mocks"
	"github.com/benmeehan/telematics-agent/internal/utils"
	"github.com/benmeehan/telematics-agent/pkg/modem/modemtest"
)

// recordingService appends its lifecycle calls to a shared log.
type recordingService struct {
	name     string
	log      *[]string
	startErr error
	stopErr  error
}

func (r *recordingService) Start() error {
	*r.log = append(*r.log, "start "+r.name)
	return r.startErr
}

func (r *recordingService) Stop() error {
	*r.log = append(*r.log, "stop "+r.name)
	return r.stopErr
}

func TestServiceRegistry_StartStopOrder(t *testing.T) {
	// Setup
	var calls []string
	sr := NewServiceRegistry(zerolog.Nop())
	sr.RegisterService("network", &recordingService{name: "network", log: &calls})
	sr.RegisterService("telemetry", &recordingService{name: "telemetry", log: &calls})
	sr.RegisterService("network", &recordingService{name: "duplicate", log: &calls})

	// Execute
	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	// Assert
	assert.Equal(t, []string{"network", "telemetry"}, sr.Names())
	assert.Equal(t, []string{"start network", "start telemetry", "stop telemetry", "stop network"}, calls)
}

func TestServiceRegistry_StartFailureRollsBack(t *testing.T) {
	// Setup
	var calls []string
	sr := NewServiceRegistry(zerolog.Nop())
	sr.RegisterService("network", &recordingService{name: "network", log: &calls})
	sr.RegisterService("location", &recordingService{name: "location", log: &calls})
	sr.RegisterService("message", &recordingService{name: "message", log: &calls, startErr: errors.New("subscribe refused")})

	// Execute
	err := sr.StartServices()

	// Assert
	assert.ErrorContains(t, err, "start message: subscribe refused")
	assert.Equal(t, []string{"start network", "start location", "start message", "stop location", "stop network"}, calls)
}

func TestServiceRegistry_StopJoinsErrors(t *testing.T) {
	// Setup
	var calls []string
	stopErr := errors.New("modem busy")
	sr := NewServiceRegistry(zerolog.Nop())
	sr.RegisterService("network", &recordingService{name: "network", log: &calls, stopErr: stopErr})
	sr.RegisterService("heartbeat", &recordingService{name: "heartbeat", log: &calls})

	// Execute
	err := sr.StopServices()

	// Assert
	assert.ErrorIs(t, err, stopErr)
	assert.Equal(t, []string{"stop heartbeat", "stop network"}, calls)
}

func TestServiceRegistry_RegisterServices(t *testing.T) {
	// Setup
	cfg := &utils.Config{}
	cfg.Identity.DeviceFile = "/tmp/identity.json"
	cfg.Modem.Port = "/dev/ttyUSB2"
	cfg.Modem.APN.Name = "internet.itelcel.com"
	cfg.Uplink = utils.UplinkConfig{Kind: utils.UplinkModem, Broker: "mqtt.example.com", Port: 1883, TopicPrefix: "vehicles"}
	s := &cfg.Services
	s.Network.RetryDelay = time.Second
	s.Network.MaxBackoff = time.Minute
	s.Network.ConnectTimeout = time.Minute
	s.Location.Enabled = true
	s.Location.Interval = 20 * time.Second
	s.Location.Sensor.Enabled = true
	s.Location.Sensor.Port = "/dev/ttyAMA0"
	s.Location.Sensor.BaudRate = 9600
	s.Location.CellTower.Enabled = true
	s.Location.CellTower.MapsAPIKey = "test-key"
	s.Telemetry.Enabled = true
	s.Heartbeat.Enabled = true
	s.Heartbeat.Interval = time.Minute
	s.Metrics.Enabled = true
	s.Metrics.Interval = time.Minute
	s.Message.Enabled = true

	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadJsonFile", "/tmp/identity.json", mock.Anything).Return(os.ErrNotExist)
	c, err := app.New(cfg, fileClient, modemtest.NewTransport(), zerolog.Nop())
	require.NoError(t, err)
	sr := NewServiceRegistry(zerolog.Nop())

	// Execute
	err = sr.RegisterServices(c)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"network", "location", "telemetry", "heartbeat", "metrics", "message"}, sr.Names())
}

func TestServiceRegistry_RegisterServices_OnlyNetwork(t *testing.T) {
	// Setup
	cfg := &utils.Config{}
	cfg.Identity.DeviceFile = "/tmp/identity.json"
	cfg.Modem.APN.Name = "internet.itelcel.com"
	cfg.Uplink = utils.UplinkConfig{Kind: utils.UplinkBroker, Broker: "mqtt.example.com", Port: 1883}

	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadJsonFile", "/tmp/identity.json", mock.Anything).Return(os.ErrNotExist)
	c, err := app.New(cfg, fileClient, modemtest.NewTransport(), zerolog.Nop())
	require.NoError(t, err)
	sr := NewServiceRegistry(zerolog.Nop())

	// Execute
	err = sr.RegisterServices(c)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"network"}, sr.Names())
}
