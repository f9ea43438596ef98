package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/telematics-agent/pkg/location"
)

// MockLocationProvider is a mock implementation of location.Provider
type MockLocationProvider struct {
	mock.Mock
}

func (m *MockLocationProvider) GetLocation(ctx context.Context) (location.Location, error) {
	args := m.Called(ctx)
	return args.Get(0).(location.Location), args.Error(1)
}

func (m *MockLocationProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}
