package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telematics-agent/internal/app"
	"github.com/benmeehan/telematics-agent/internal/mocks"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/internal/services"
	"github.com/benmeehan/telematics-agent/pkg/modem"
	"github.com/benmeehan/telematics-agent/pkg/uplink/uplinktest"
)

var testIdentification = modem.Identification{Manufacturer: "SIMCOM", Model: "SIM7000G", IMEI: "869951030000001"}

type networkFixture struct {
	modem      *mockModem
	gnss       *mockGNSS
	uplink     *uplinktest.MockPublisher
	deviceInfo *mocks.MockDeviceInfo
	network    *app.Queue[models.NetworkEvent]
}

func newNetwork(nmea bool) (*services.NetworkService, *networkFixture) {
	f := &networkFixture{
		modem:      newMockModem(),
		gnss:       new(mockGNSS),
		uplink:     new(uplinktest.MockPublisher),
		deviceInfo: new(mocks.MockDeviceInfo),
		network:    app.NewQueue[models.NetworkEvent](4),
	}
	f.deviceInfo.On("GetDeviceID").Return("dev-1")
	cfg := services.NetworkConfig{
		RetryDelay:     10 * time.Millisecond,
		MaxBackoff:     40 * time.Millisecond,
		ConnectTimeout: time.Second,
		GNSSInterval:   5,
		NMEAOutput:     nmea,
	}
	svc := services.NewNetworkService(cfg, f.modem, f.gnss, f.uplink, f.deviceInfo, f.network, zerolog.Nop())
	return svc, f
}

// expectBringUp registers a successful full bring-up.
func (f *networkFixture) expectBringUp() {
	f.modem.On("Subscribe", "network", 0).Return()
	f.modem.On("Start", mock.Anything).Return(nil)
	f.modem.On("Alive").Return(true)
	f.modem.On("Initialize", mock.Anything).Return(nil)
	f.modem.On("Identify", mock.Anything).Return(testIdentification, nil)
	f.deviceInfo.On("UpdateFromModem", testIdentification).Return(nil)
	f.gnss.On("Enable", mock.Anything, 5).Return(nil)
	f.modem.On("LocalIP").Return("10.64.1.7")
	f.uplink.On("Connect", mock.Anything).Return(nil)
}

func (f *networkFixture) expectStop() {
	f.uplink.On("Close").Return(nil)
	f.modem.On("DeactivateNetwork", mock.Anything).Return(nil)
	f.modem.On("Stop").Return(nil)
	f.modem.On("Unsubscribe", "network").Return()
}

func nextNetworkEvent(t *testing.T, q *app.Queue[models.NetworkEvent]) models.NetworkEvent {
	t.Helper()
	select {
	case ev := <-q.C():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no network event")
		return models.NetworkEvent{}
	}
}

func TestNetworkService_BringUp(t *testing.T) {
	// Setup
	svc, f := newNetwork(true)
	f.expectBringUp()
	f.gnss.On("SetNMEAOutput", mock.Anything, true).Return(nil)
	f.modem.On("ActivateNetwork", mock.Anything).Return(nil)
	f.expectStop()

	// Execute
	require.NoError(t, svc.Start())
	up := nextNetworkEvent(t, f.network)
	require.NoError(t, svc.Stop())

	// Assert
	assert.True(t, up.Up)
	assert.Equal(t, "10.64.1.7", up.LocalIP)
	f.deviceInfo.AssertCalled(t, "UpdateFromModem", testIdentification)
	f.gnss.AssertCalled(t, "SetNMEAOutput", mock.Anything, true)
	f.uplink.AssertCalled(t, "Close")
	f.modem.AssertCalled(t, "DeactivateNetwork", mock.Anything)
	f.modem.AssertCalled(t, "Stop")
	f.modem.AssertCalled(t, "Unsubscribe", "network")
}

func TestNetworkService_ReconnectsAfterPDPDeactivation(t *testing.T) {
	// Setup
	svc, f := newNetwork(false)
	f.expectBringUp()
	f.modem.On("ActivateNetwork", mock.Anything).Return(nil)
	f.expectStop()
	require.NoError(t, svc.Start())
	require.True(t, nextNetworkEvent(t, f.network).Up)

	// Execute
	f.modem.events <- modem.Event{Kind: modem.EventPDPDeactivated}
	down := nextNetworkEvent(t, f.network)
	up := nextNetworkEvent(t, f.network)
	require.NoError(t, svc.Stop())

	// Assert
	assert.False(t, down.Up)
	assert.True(t, up.Up)
	f.modem.AssertNumberOfCalls(t, "ActivateNetwork", 2)
	f.modem.AssertNumberOfCalls(t, "Initialize", 1)
	f.gnss.AssertNotCalled(t, "SetNMEAOutput", mock.Anything, mock.Anything)
}

func TestNetworkService_ReinitializesWhenSIMRemoved(t *testing.T) {
	// Setup
	svc, f := newNetwork(false)
	f.expectBringUp()
	f.modem.On("ActivateNetwork", mock.Anything).Return(nil)
	f.expectStop()
	require.NoError(t, svc.Start())
	require.True(t, nextNetworkEvent(t, f.network).Up)

	// Execute
	f.modem.events <- modem.Event{Kind: modem.EventSIMStatus, SIM: modem.SIMNotInserted}
	require.False(t, nextNetworkEvent(t, f.network).Up)
	require.True(t, nextNetworkEvent(t, f.network).Up)
	require.NoError(t, svc.Stop())

	// Assert
	f.modem.AssertNumberOfCalls(t, "Initialize", 2)
}

func TestNetworkService_RetriesFailedBringUp(t *testing.T) {
	// Setup
	svc, f := newNetwork(false)
	f.expectBringUp()
	f.modem.On("ActivateNetwork", mock.Anything).Return(errors.New("no service")).Once()
	f.modem.On("ActivateNetwork", mock.Anything).Return(nil)
	f.expectStop()

	// Execute
	require.NoError(t, svc.Start())
	up := nextNetworkEvent(t, f.network)
	require.NoError(t, svc.Stop())

	// Assert
	assert.True(t, up.Up)
	f.modem.AssertNumberOfCalls(t, "ActivateNetwork", 2)
	f.modem.AssertNumberOfCalls(t, "Initialize", 2)
}

func TestNetworkService_StartFailure(t *testing.T) {
	// Setup
	svc, f := newNetwork(false)
	f.modem.On("Subscribe", "network", 0).Return()
	f.modem.On("Start", mock.Anything).Return(modem.ErrInvalidConfig)
	f.modem.On("Unsubscribe", "network").Return()

	// Execute
	err := svc.Start()

	// Assert
	assert.ErrorIs(t, err, modem.ErrInvalidConfig)
	f.modem.AssertCalled(t, "Unsubscribe", "network")
	assert.EqualError(t, svc.Stop(), "network service is not running")
}
