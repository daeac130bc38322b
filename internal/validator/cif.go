package validator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/twiindan/facturai/internal/domain"
)

// CIFConsistencyValidator checks that a company name always appears with the
// same tax id within one run. The first tax id seen for a name is kept;
// later conflicting ids are reported and never replace it.
type CIFConsistencyValidator struct {
	mu    sync.Mutex
	known map[string]string
}

// NewCIFConsistencyValidator creates a validator with an empty mapping.
func NewCIFConsistencyValidator() *CIFConsistencyValidator {
	return &CIFConsistencyValidator{known: make(map[string]string)}
}

func (v *CIFConsistencyValidator) RuleKey() string { return domain.RuleCIFConsistency }
func (v *CIFConsistencyValidator) RuleName() string {
	return "Consistency: Company Tax ID"
}

// Validate checks the provider and then the client of rec. Names are
// compared as exact strings.
func (v *CIFConsistencyValidator) Validate(_ context.Context, rec *domain.InvoiceRecord) []domain.ValidationError {
	v.mu.Lock()
	defer v.mu.Unlock()

	var errs []domain.ValidationError
	for _, company := range rec.Companies() {
		if !company.Complete() {
			continue
		}
		name := strings.TrimSpace(company.Name)
		taxID := strings.TrimSpace(company.TaxID)

		existing, seen := v.known[name]
		if !seen {
			v.known[name] = taxID
			continue
		}
		if existing == taxID {
			continue
		}
		errs = append(errs, domain.ValidationError{
			RuleKey:        domain.RuleCIFConsistency,
			Role:           company.Role,
			Company:        name,
			TaxID:          taxID,
			ExistingTaxID:  existing,
			SourceFilename: rec.SourceFilename,
			Message: fmt.Sprintf("inconsistency found for company '%s' (%s): new tax id '%s' does not match existing tax id '%s'",
				name, company.Role, taxID, existing),
		})
	}
	return errs
}

// Known returns a copy of the name to tax id mapping.
func (v *CIFConsistencyValidator) Known() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]string, len(v.known))
	for k, id := range v.known {
		out[k] = id
	}
	return out
}
