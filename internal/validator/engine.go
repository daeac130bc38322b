package validator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/domain"
)

// Engine runs every registered rule against each record.
type Engine struct {
	registry *Registry
	log      zerolog.Logger
}

// NewEngine creates a new validation engine.
func NewEngine(registry *Registry, log zerolog.Logger) *Engine {
	return &Engine{registry: registry, log: log}
}

// NewBatchEngine builds an engine with the built-in rules and fresh state.
// Call it once per batch run: the tax id consistency map must not leak
// across runs.
func NewBatchEngine(log zerolog.Logger) (*Engine, error) {
	required, err := NewRequiredFieldsValidator()
	if err != nil {
		return nil, err
	}
	registry := NewRegistry()
	registry.Register(NewCIFConsistencyValidator())
	registry.Register(required)
	return NewEngine(registry, log), nil
}

// ValidateRecord runs all rules and returns the accumulated findings. Each
// finding is logged at warn level.
func (e *Engine) ValidateRecord(ctx context.Context, rec *domain.InvoiceRecord) []domain.ValidationError {
	var all []domain.ValidationError
	for _, v := range e.registry.All() {
		for _, ve := range v.Validate(ctx, rec) {
			e.log.Warn().
				Str("rule", ve.RuleKey).
				Str("file", ve.SourceFilename).
				Str("field", ve.Field).
				Msg("validator.Engine: " + ve.Message)
			all = append(all, ve)
		}
	}
	return all
}
