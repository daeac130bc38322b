package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/twiindan/facturai/internal/domain"
)

// MockInvoiceRecordRepo is a mock implementation of port.InvoiceRecordRepository.
type MockInvoiceRecordRepo struct {
	mock.Mock
}

func (m *MockInvoiceRecordRepo) SaveBatch(ctx context.Context, result *domain.BatchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
