package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/twiindan/facturai/internal/port"
)

// MockDocumentSource is a mock implementation of port.DocumentSource.
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) List(ctx context.Context, dir string) ([]port.DocumentRef, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.DocumentRef), args.Error(1)
}

func (m *MockDocumentSource) ReadText(ctx context.Context, doc port.DocumentRef) string {
	args := m.Called(ctx, doc)
	return args.String(0)
}

func (m *MockDocumentSource) ReadBytes(ctx context.Context, doc port.DocumentRef) []byte {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]byte)
}
