package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/port"
)

// Publisher hands a finished batch to every configured sink. Critical sink
// failures are returned; optional sink failures are only logged.
type Publisher struct {
	critical []port.ResultSink
	optional []port.ResultSink
	log      zerolog.Logger
}

// NewPublisher creates a Publisher with no sinks.
func NewPublisher(log zerolog.Logger) *Publisher {
	return &Publisher{log: log}
}

// AddCritical registers a sink whose failure fails the run.
func (p *Publisher) AddCritical(sink port.ResultSink) {
	p.critical = append(p.critical, sink)
}

// AddOptional registers a best-effort sink.
func (p *Publisher) AddOptional(sink port.ResultSink) {
	p.optional = append(p.optional, sink)
}

// Publish runs critical sinks first, stopping at the first failure, then
// every optional sink.
func (p *Publisher) Publish(ctx context.Context, result *domain.BatchResult) error {
	for _, sink := range p.critical {
		if err := sink.Publish(ctx, result); err != nil {
			return fmt.Errorf("publishing to %s: %w", sink.Name(), err)
		}
	}
	var failed []error
	for _, sink := range p.optional {
		if err := sink.Publish(ctx, result); err != nil {
			p.log.Error().Err(err).Str("sink", sink.Name()).Msg("publisher.Publish: optional sink failed")
			failed = append(failed, err)
		}
	}
	p.log.Info().
		Int("critical", len(p.critical)).
		Int("optional", len(p.optional)).
		Int("optional_failed", len(failed)).
		Msg("publisher.Publish: done")
	return nil
}

// PrepareOutputDir creates dir if needed and checks that files can be
// created in it.
func PrepareOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrOutputNotWritable, dir, err)
	}
	probe, err := os.CreateTemp(dir, ".facturai-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrOutputNotWritable, dir, err)
	}
	name := probe.Name()
	closeErr := probe.Close()
	removeErr := os.Remove(name)
	if err := errors.Join(closeErr, removeErr); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrOutputNotWritable, dir, err)
	}
	return nil
}

// SummaryFileSink writes the batch summary as indented JSON.
type SummaryFileSink struct {
	path string
}

// NewSummaryFileSink creates a sink writing to dir/name.
func NewSummaryFileSink(dir, name string) *SummaryFileSink {
	return &SummaryFileSink{path: filepath.Join(dir, name)}
}

func (s *SummaryFileSink) Name() string { return "summary" }

func (s *SummaryFileSink) Publish(_ context.Context, result *domain.BatchResult) error {
	data, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o644)
}

// RepositorySink stores the batch through an InvoiceRecordRepository.
type RepositorySink struct {
	repo port.InvoiceRecordRepository
}

// NewRepositorySink wraps repo as a ResultSink.
func NewRepositorySink(repo port.InvoiceRecordRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Name() string { return "postgres" }

func (s *RepositorySink) Publish(ctx context.Context, result *domain.BatchResult) error {
	return s.repo.SaveBatch(ctx, result)
}
