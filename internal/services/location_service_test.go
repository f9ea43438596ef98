package services_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telematics-agent/internal/app"
	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/internal/mocks"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/internal/services"
	"github.com/benmeehan/telematics-agent/pkg/location"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

type locationFixture struct {
	provider  *mocks.MockLocationProvider
	positions *app.Queue[models.PositionEvent]
	events    *app.Queue[models.DeviceEvent]
}

func newLocation(events services.EventSource) (*services.LocationService, *locationFixture) {
	deviceInfo := new(mocks.MockDeviceInfo)
	deviceInfo.On("GetDeviceID").Return("dev-1")
	f := &locationFixture{
		provider:  new(mocks.MockLocationProvider),
		positions: app.NewQueue[models.PositionEvent](constants.PositionQueueLength),
		events:    app.NewQueue[models.DeviceEvent](constants.DeviceQueueLength),
	}
	svc := services.NewLocationService(30*time.Millisecond, deviceInfo, f.provider, events, f.positions, f.events, zerolog.Nop())
	return svc, f
}

func nextPosition(t *testing.T, q *app.Queue[models.PositionEvent]) models.PositionEvent {
	t.Helper()
	select {
	case pos := <-q.C():
		return pos
	case <-time.After(2 * time.Second):
		t.Fatal("no position enqueued")
		return models.PositionEvent{}
	}
}

func nextDeviceEvent(t *testing.T, q *app.Queue[models.DeviceEvent]) models.DeviceEvent {
	t.Helper()
	select {
	case ev := <-q.C():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no device event enqueued")
		return models.DeviceEvent{}
	}
}

func TestLocationService_StartStop(t *testing.T) {
	// Setup
	svc, f := newLocation(nil)
	f.provider.On("GetLocation", mock.Anything).Return(location.Location{}, location.ErrNoFix).Maybe()
	f.provider.On("Close").Return(nil)

	// Execute
	err := svc.Start()

	// Assert
	assert.NoError(t, err)
	assert.EqualError(t, svc.Start(), "location service is already running")
	assert.NoError(t, svc.Stop())
	assert.EqualError(t, svc.Stop(), "location service is not running")
	f.provider.AssertCalled(t, "Close")
}

func TestLocationService_PollsProvider(t *testing.T) {
	// Setup
	svc, f := newLocation(nil)
	fix := location.Location{Latitude: 19.4326, Longitude: -99.1332, Source: location.SourceSensor}
	f.provider.On("GetLocation", mock.Anything).Return(fix, nil)
	f.provider.On("Close").Return(nil)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	// Execute
	pos := nextPosition(t, f.positions)

	// Assert
	assert.Equal(t, "dev-1", pos.DeviceID)
	assert.Equal(t, fix, pos.Location)
}

func TestLocationService_ReportsFixLostAndRestored(t *testing.T) {
	// Setup
	svc, f := newLocation(nil)
	f.provider.On("GetLocation", mock.Anything).Return(location.Location{}, location.ErrNoFix).Once()
	f.provider.On("GetLocation", mock.Anything).Return(location.Location{Latitude: 1, Longitude: 2}, nil)
	f.provider.On("Close").Return(nil)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	// Execute
	lost := nextDeviceEvent(t, f.events)
	restored := nextDeviceEvent(t, f.events)

	// Assert
	assert.Equal(t, constants.EventGPSSignalLost, lost.Code)
	assert.Equal(t, constants.EventGPSSignalRestored, restored.Code)
	assert.NotEmpty(t, lost.ID)
	assert.NotEqual(t, lost.ID, restored.ID)
	assert.Equal(t, "dev-1", restored.DeviceID)
}

func TestLocationService_UsesNavigationReports(t *testing.T) {
	// Setup
	bus := modem.NewBus(zerolog.Nop())
	svc, f := newLocation(bus)
	f.provider.On("GetLocation", mock.Anything).Return(location.Location{}, location.ErrNoFix).Maybe()
	f.provider.On("Close").Return(nil)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	// Execute
	bus.Publish(modem.Event{Kind: modem.EventNavigation, Navigation: modem.NavInfo{
		Running:        true,
		Fixed:          true,
		Latitude:       20.6597,
		Longitude:      -103.3496,
		Speed:          42.5,
		HPA:            3.2,
		SatellitesUsed: 9,
	}})

	// Assert
	pos := nextPosition(t, f.positions)
	assert.Equal(t, location.SourceGNSS, pos.Source)
	assert.Equal(t, 20.6597, pos.Latitude)
	assert.Equal(t, -103.3496, pos.Longitude)
	assert.Equal(t, 42.5, pos.Speed)
	assert.Equal(t, 3.2, pos.Accuracy)
	assert.Equal(t, 9, pos.Satellites)
}
