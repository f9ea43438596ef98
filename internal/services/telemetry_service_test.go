package services_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telematics-agent/internal/app"
	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/internal/services"
	"github.com/benmeehan/telematics-agent/pkg/location"
	"github.com/benmeehan/telematics-agent/pkg/uplink/uplinktest"
)

func newTelemetry(pub *uplinktest.MockPublisher) (*services.TelemetryService, *app.Queue[models.PositionEvent], *app.Queue[models.DeviceEvent]) {
	positions := app.NewQueue[models.PositionEvent](constants.PositionQueueLength)
	events := app.NewQueue[models.DeviceEvent](constants.DeviceQueueLength)
	t := services.NewTelemetryService("positions", "events", 1, positions.C(), events.C(), pub, testTopic, zerolog.Nop())
	return t, positions, events
}

func TestTelemetryService_StartStop(t *testing.T) {
	// Setup
	pub := new(uplinktest.MockPublisher)
	svc, _, _ := newTelemetry(pub)

	// Execute
	err := svc.Start()

	// Assert
	assert.NoError(t, err)
	err = svc.Start()
	assert.EqualError(t, err, "telemetry service is already running")

	assert.NoError(t, svc.Stop())
	err = svc.Stop()
	assert.EqualError(t, err, "telemetry service is not running")
}

func TestTelemetryService_PublishesPositions(t *testing.T) {
	// Setup
	pub := new(uplinktest.MockPublisher)
	got := newPayloads()
	pub.On("Connected").Return(true)
	pub.On("Publish", mock.Anything, "vehicles/dev-1/positions", byte(1), false, mock.Anything).
		Run(got.record).Return(nil)
	svc, positions, _ := newTelemetry(pub)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	// Execute
	positions.Offer(models.PositionEvent{
		DeviceID: "dev-1",
		Location: location.Location{Latitude: 19.43, Longitude: -99.13, Source: location.SourceGNSS},
	})

	// Assert
	select {
	case payload := <-got.ch:
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(payload, &decoded))
		assert.Equal(t, "dev-1", decoded["device_id"])
		assert.Equal(t, 19.43, decoded["lat"])
		assert.Equal(t, -99.13, decoded["lon"])
		assert.Equal(t, "gnss", decoded["source"])
	case <-time.After(2 * time.Second):
		t.Fatal("position was not published")
	}
}

func TestTelemetryService_DropsPositionsWhileDisconnected(t *testing.T) {
	// Setup
	pub := new(uplinktest.MockPublisher)
	pub.On("Connected").Return(false)
	svc, positions, _ := newTelemetry(pub)
	require.NoError(t, svc.Start())

	// Execute
	positions.Offer(models.PositionEvent{DeviceID: "dev-1"})

	// Assert
	assert.Eventually(t, func() bool { return positions.Len() == 0 }, time.Second, 10*time.Millisecond)
	require.NoError(t, svc.Stop())
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTelemetryService_DeviceEventsKeptUntilConnected(t *testing.T) {
	// Setup
	pub := new(uplinktest.MockPublisher)
	got := newPayloads()
	pub.On("Connected").Return(false).Once()
	pub.On("Connected").Return(true)
	pub.On("Publish", mock.Anything, "vehicles/dev-1/events", byte(1), false, mock.Anything).
		Run(got.record).Return(nil)
	svc, _, events := newTelemetry(pub)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	// Execute
	events.Offer(models.DeviceEvent{ID: "1", Code: constants.EventGPSSignalLost})
	assert.Eventually(t, func() bool { return events.Len() == 0 }, time.Second, 10*time.Millisecond)
	events.Offer(models.DeviceEvent{ID: "2", Code: constants.EventGPSSignalRestored})

	// Assert
	for _, want := range []string{"1", "2"} {
		select {
		case payload := <-got.ch:
			var ev models.DeviceEvent
			require.NoError(t, json.Unmarshal(payload, &ev))
			assert.Equal(t, want, ev.ID)
		case <-time.After(2 * time.Second):
			t.Fatalf("device event %s was not published", want)
		}
	}
}
