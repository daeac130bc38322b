package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/twiindan/facturai/internal/domain"
)

// MockResultSink is a mock implementation of port.ResultSink.
type MockResultSink struct {
	mock.Mock
}

func (m *MockResultSink) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockResultSink) Publish(ctx context.Context, result *domain.BatchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
