package uplink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telematics-agent/pkg/modem"
	modemmqtt "github.com/benmeehan/telematics-agent/pkg/modem/mqtt"
)

type mockModemClient struct {
	mock.Mock
}

func (m *mockModemClient) Configure(ctx context.Context, cfg modemmqtt.Config) error {
	return m.Called(cfg).Error(0)
}

func (m *mockModemClient) Connect(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockModemClient) Disconnect(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockModemClient) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	return m.Called(topic, payload, qos, retain).Error(0)
}

func (m *mockModemClient) Subscribe(ctx context.Context, topic string, qos byte) error {
	return m.Called(topic, qos).Error(0)
}

var cellularConfig = modemmqtt.Config{ClientID: "truck-042", Broker: "broker.example.com", Port: 1883}

func connectedCellular(t *testing.T) (*Cellular, *mockModemClient, *modem.Bus) {
	t.Helper()
	client := new(mockModemClient)
	client.On("Configure", cellularConfig).Return(nil)
	client.On("Connect").Return(nil)
	bus := modem.NewBus(zerolog.Nop())
	c := NewCellular(cellularConfig, client, bus, zerolog.Nop())
	require.NoError(t, c.Connect(context.Background()))
	return c, client, bus
}

func TestCellular_PublishBeforeConnect(t *testing.T) {
	c := NewCellular(cellularConfig, new(mockModemClient), modem.NewBus(zerolog.Nop()), zerolog.Nop())

	err := c.Publish(context.Background(), "t", 1, false, []byte("x"))

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, c.Connected())
}

func TestCellular_ConnectAndPublish(t *testing.T) {
	// Setup
	c, client, _ := connectedCellular(t)
	client.On("Publish", "vehicles/truck-042/position", []byte("{}"), byte(1), false).Return(nil)
	client.On("Disconnect").Return(nil)

	// Execute
	err := c.Publish(context.Background(), "vehicles/truck-042/position", 1, false, []byte("{}"))

	// Assert
	assert.NoError(t, err)
	assert.True(t, c.Connected())
	assert.NoError(t, c.Close())
	assert.False(t, c.Connected())
	client.AssertExpectations(t)
}

func TestCellular_ConnectFailure(t *testing.T) {
	client := new(mockModemClient)
	client.On("Configure", cellularConfig).Return(nil)
	client.On("Connect").Return(errors.New("no network"))
	c := NewCellular(cellularConfig, client, modem.NewBus(zerolog.Nop()), zerolog.Nop())

	assert.EqualError(t, c.Connect(context.Background()), "no network")
	assert.False(t, c.Connected())
	assert.NoError(t, c.Close())
}

func TestCellular_SubscriptionsRestoredOnConnect(t *testing.T) {
	// Setup
	client := new(mockModemClient)
	client.On("Configure", cellularConfig).Return(nil)
	client.On("Connect").Return(nil)
	client.On("Subscribe", "vehicles/truck-042/ping", byte(1)).Return(nil).Once()
	c := NewCellular(cellularConfig, client, modem.NewBus(zerolog.Nop()), zerolog.Nop())

	// Execute
	require.NoError(t, c.Subscribe(context.Background(), "vehicles/truck-042/ping", 1, func(string, []byte) {}))
	client.AssertNotCalled(t, "Subscribe", "vehicles/truck-042/ping", byte(1))
	err := c.Connect(context.Background())

	// Assert
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestCellular_RoutesMessages(t *testing.T) {
	// Setup
	c, client, bus := connectedCellular(t)
	client.On("Subscribe", "vehicles/+/ping", byte(1)).Return(nil)
	client.On("Disconnect").Return(nil)

	var mu sync.Mutex
	var got []string
	require.NoError(t, c.Subscribe(context.Background(), "vehicles/+/ping", 1, func(topic string, payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, topic+" "+string(payload))
	}))

	// Execute
	bus.Publish(modem.Event{Kind: modem.EventMessage, Message: modem.Message{Topic: "other/topic", Payload: []byte("no")}})
	bus.Publish(modem.Event{Kind: modem.EventMessage, Message: modem.Message{Topic: "vehicles/truck-042/ping", Payload: []byte(`{"id":"1"}`)}})

	// Assert
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{`vehicles/truck-042/ping {"id":"1"}`}, got)
	mu.Unlock()
	assert.NoError(t, c.Close())
}

func TestCellular_ConnectionLost(t *testing.T) {
	tests := []struct {
		name string
		ev   modem.Event
	}{
		{"mqtt state", modem.Event{Kind: modem.EventMQTTState, Active: false}},
		{"app network", modem.Event{Kind: modem.EventAppNetwork, Active: false}},
		{"pdp deactivated", modem.Event{Kind: modem.EventPDPDeactivated}},
		{"modem stopped", modem.Event{Kind: modem.EventStopped}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, bus := connectedCellular(t)

			bus.Publish(tt.ev)

			assert.Eventually(t, func() bool { return !c.Connected() }, time.Second, 5*time.Millisecond)
			assert.ErrorIs(t, c.Publish(context.Background(), "t", 0, false, nil), ErrNotConnected)
			assert.NoError(t, c.Close())
		})
	}
}

func TestCellular_ActiveStateKeepsConnection(t *testing.T) {
	c, client, bus := connectedCellular(t)
	client.On("Disconnect").Return(nil)

	bus.Publish(modem.Event{Kind: modem.EventMQTTState, Active: true})
	bus.Publish(modem.Event{Kind: modem.EventFunctionality, Functionality: 1})

	assert.Never(t, func() bool { return !c.Connected() }, 50*time.Millisecond, 5*time.Millisecond)
	assert.NoError(t, c.Close())
}
