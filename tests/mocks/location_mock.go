package mocks

import (
	"context"

	"github.com/benmeehan/route-agent/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockLocationProvider is a mock implementation of the location.Provider interface
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

// StaticSource is a location.Source that replays a fixed list of fixes and returns.
type StaticSource struct {
	Locations []location.Location
	Err       error
}

func (s *StaticSource) Watch(ctx context.Context, handler location.Handler) error {
	for _, loc := range s.Locations {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		handler(loc)
	}
	return s.Err
}
