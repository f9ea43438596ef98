package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/telematics-agent/internal/mocks"
)

func TestMqttService_NotInitialized(t *testing.T) {
	s := NewMqttService(nil, zerolog.Nop())

	assert.ErrorIs(t, s.Connect(context.Background()), ErrNotInitialized)
	assert.ErrorIs(t, s.Publish(context.Background(), "t", 0, false, nil), ErrNotInitialized)
	assert.False(t, s.IsConnected())
	s.Disconnect(250)
}

func TestMqttService_Publish(t *testing.T) {
	// Setup
	client := new(mocks.MockMQTTClient)
	client.On("Publish", "vehicles/truck-042/position", byte(1), false, []byte("{}")).
		Return(mocks.NewCompletedToken(nil))
	s := NewMqttServiceWithClient(client, zerolog.Nop())

	// Execute
	err := s.Publish(context.Background(), "vehicles/truck-042/position", 1, false, []byte("{}"))

	// Assert
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestMqttService_Publish_Error(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Publish", "t", byte(0), true, mock.Anything).
		Return(mocks.NewCompletedToken(errors.New("not connected")))
	s := NewMqttServiceWithClient(client, zerolog.Nop())

	err := s.Publish(context.Background(), "t", 0, true, []byte("x"))

	assert.EqualError(t, err, "not connected")
}

func TestWait_ContextDone(t *testing.T) {
	token := new(mocks.MockToken)
	token.On("Done").Return((<-chan struct{})(make(chan struct{})))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Wait(ctx, token), context.Canceled)
}

func TestMqttService_Subscriptions(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Subscribe", "cmd", byte(1), mock.Anything).Return(mocks.NewCompletedToken(nil))
	client.On("Unsubscribe", []string{"cmd"}).Return(mocks.NewCompletedToken(nil))
	client.On("IsConnected").Return(true)
	client.On("Disconnect", uint(250)).Return()
	s := NewMqttServiceWithClient(client, zerolog.Nop())

	assert.NoError(t, s.Subscribe(context.Background(), "cmd", 1, nil))
	assert.NoError(t, s.Unsubscribe(context.Background(), "cmd"))
	assert.True(t, s.IsConnected())
	s.Disconnect(250)
	client.AssertExpectations(t)
}
