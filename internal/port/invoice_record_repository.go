package port

import (
	"context"

	"github.com/twiindan/facturai/internal/domain"
)

// InvoiceRecordRepository persists the records of one batch run.
type InvoiceRecordRepository interface {
	SaveBatch(ctx context.Context, result *domain.BatchResult) error
}
