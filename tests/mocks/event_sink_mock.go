package mocks

import (
	"context"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/stretchr/testify/mock"
)

// MockEventSink is a mock implementation of the deviation.EventSink interface
type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) PublishDeviation(ctx context.Context, event deviation.DeviationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
