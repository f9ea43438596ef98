package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/telematics-agent/internal/app"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

func testTopic(name string) string {
	return app.DeviceTopic("vehicles", "dev-1", name)
}

type mockModem struct {
	mock.Mock
	events chan modem.Event
}

func newMockModem() *mockModem {
	return &mockModem{events: make(chan modem.Event, 8)}
}

func (m *mockModem) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockModem) Stop() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockModem) Alive() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockModem) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockModem) Identify(ctx context.Context) (modem.Identification, error) {
	args := m.Called(ctx)
	return args.Get(0).(modem.Identification), args.Error(1)
}

func (m *mockModem) ActivateNetwork(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockModem) DeactivateNetwork(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockModem) LocalIP() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockModem) Subscribe(name string, buffer int) <-chan modem.Event {
	m.Called(name, buffer)
	return m.events
}

func (m *mockModem) Unsubscribe(name string) {
	m.Called(name)
}

type mockGNSS struct {
	mock.Mock
}

func (m *mockGNSS) Enable(ctx context.Context, interval int) error {
	args := m.Called(ctx, interval)
	return args.Error(0)
}

func (m *mockGNSS) SetNMEAOutput(ctx context.Context, on bool) error {
	args := m.Called(ctx, on)
	return args.Error(0)
}

type mockSignal struct {
	mock.Mock
}

func (m *mockSignal) SignalQuality(ctx context.Context) (modem.SignalQuality, error) {
	args := m.Called(ctx)
	return args.Get(0).(modem.SignalQuality), args.Error(1)
}

func (m *mockSignal) Operator(ctx context.Context) (modem.Operator, error) {
	args := m.Called(ctx)
	return args.Get(0).(modem.Operator), args.Error(1)
}

func (m *mockSignal) LocalIP() string {
	args := m.Called()
	return args.String(0)
}

// payloads collects the payloads published on a MockPublisher. Payloads beyond the buffer
// are dropped so that periodic publishers never block.
type payloads struct {
	ch chan []byte
}

func newPayloads() *payloads {
	return &payloads{ch: make(chan []byte, 16)}
}

func (p *payloads) record(args mock.Arguments) {
	select {
	case p.ch <- args.Get(4).([]byte):
	default:
	}
}
