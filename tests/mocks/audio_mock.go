package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAudioTrigger is a mock implementation of the deviation.AudioTrigger interface
type MockAudioTrigger struct {
	mock.Mock
}

func (m *MockAudioTrigger) Play(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
