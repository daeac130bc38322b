package port

import (
	"context"

	"github.com/twiindan/facturai/internal/domain"
)

// ResultSink receives the output views of a finished batch.
type ResultSink interface {
	Name() string
	Publish(ctx context.Context, result *domain.BatchResult) error
}
