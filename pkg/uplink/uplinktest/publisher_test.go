package uplinktest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMockPublisher_DeliverToSubscribedHandler(t *testing.T) {
	// Setup
	pub := new(MockPublisher)
	pub.On("Subscribe", mock.Anything, "vehicles/dev-1/ping", byte(1), mock.Anything).Return(nil)

	var got []byte
	err := pub.Subscribe(context.Background(), "vehicles/dev-1/ping", 1, func(topic string, payload []byte) {
		got = payload
	})

	// Execute
	delivered := pub.Deliver("vehicles/dev-1/ping", []byte(`{"timestamp":1}`))
	missed := pub.Deliver("vehicles/dev-1/other", []byte("x"))

	// Assert
	assert.NoError(t, err)
	assert.True(t, delivered)
	assert.False(t, missed)
	assert.Equal(t, []byte(`{"timestamp":1}`), got)
	pub.AssertExpectations(t)
}
