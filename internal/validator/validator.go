package validator

import (
	"context"

	"github.com/twiindan/facturai/internal/domain"
)

// Validator is the interface for a single validation rule. Rules report
// findings and never modify or drop the record.
type Validator interface {
	Validate(ctx context.Context, rec *domain.InvoiceRecord) []domain.ValidationError
	RuleKey() string
	RuleName() string
}
