package mocks

// MockMessage implements mqtt.Message for broker subscription tests.
type MockMessage struct {
	topic    string
	payload  []byte
	retained bool
	acked    bool
}

// NewMockMessage creates a message received on topic.
func NewMockMessage(topic string, payload []byte) *MockMessage {
	return &MockMessage{topic: topic, payload: payload}
}

func (m *MockMessage) Duplicate() bool   { return false }
func (m *MockMessage) Qos() byte         { return 1 }
func (m *MockMessage) Retained() bool    { return m.retained }
func (m *MockMessage) Topic() string     { return m.topic }
func (m *MockMessage) MessageID() uint16 { return 1 }
func (m *MockMessage) Payload() []byte   { return m.payload }
func (m *MockMessage) Ack()              { m.acked = true }

// Acked reports whether Ack was called.
func (m *MockMessage) Acked() bool { return m.acked }
