// Package uplinktest provides a testify mock of the uplink publisher.
package uplinktest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/telematics-agent/pkg/uplink"
)

var _ uplink.Publisher = (*MockPublisher)(nil)

// MockPublisher is a mock implementation of uplink.Publisher. Handlers passed to Subscribe
// are kept so that tests can deliver messages with Deliver.
type MockPublisher struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[string]uplink.Handler
}

func (m *MockPublisher) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPublisher) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error {
	args := m.Called(ctx, topic, qos, retain, payload)
	return args.Error(0)
}

func (m *MockPublisher) Subscribe(ctx context.Context, topic string, qos byte, handler uplink.Handler) error {
	args := m.Called(ctx, topic, qos, handler)
	if args.Error(0) == nil {
		m.mu.Lock()
		if m.handlers == nil {
			m.handlers = make(map[string]uplink.Handler)
		}
		m.handlers[topic] = handler
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Deliver hands payload to the handler subscribed to topic and reports whether there was one.
func (m *MockPublisher) Deliver(topic string, payload []byte) bool {
	m.mu.Lock()
	h, ok := m.handlers[topic]
	m.mu.Unlock()
	if ok {
		h(topic, payload)
	}
	return ok
}
