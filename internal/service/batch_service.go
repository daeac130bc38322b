package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/twiindan/facturai/internal/dedup"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/normalizer"
	"github.com/twiindan/facturai/internal/port"
	"github.com/twiindan/facturai/internal/validator"
)

// BatchConfig holds settings for one batch run.
type BatchConfig struct {
	InputMode       domain.InputMode
	MaxContextChars int
	Concurrency     int
	DedupScope      dedup.Scope
}

// BatchService runs the extraction pipeline over a directory of documents.
type BatchService interface {
	Run(ctx context.Context, inputDir string) (*domain.BatchResult, error)
}

type batchService struct {
	source     port.DocumentSource
	extractor  port.Extractor
	normalizer *normalizer.Normalizer
	cfg        BatchConfig
	log        zerolog.Logger
}

// NewBatchService creates a new BatchService.
func NewBatchService(
	source port.DocumentSource,
	ext port.Extractor,
	norm *normalizer.Normalizer,
	cfg BatchConfig,
	log zerolog.Logger,
) BatchService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.InputMode == "" {
		cfg.InputMode = domain.InputModeText
	}
	return &batchService{
		source:     source,
		extractor:  ext,
		normalizer: norm,
		cfg:        cfg,
		log:        log,
	}
}

// documentOutcome is what processing one document produced: either records
// (possibly none) or a failure.
type documentOutcome struct {
	records []domain.InvoiceRecord
	failure *domain.DocumentFailure
}

// Run processes every PDF of inputDir. Per-document failures are recorded in
// the summary and never stop the batch; only setup errors, cancellation and
// an unconfigured extraction client are returned as errors.
func (s *batchService) Run(ctx context.Context, inputDir string) (*domain.BatchResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInputDirNotFound, inputDir)
	}

	engine, err := validator.NewBatchEngine(s.log)
	if err != nil {
		return nil, fmt.Errorf("building validation engine: %w", err)
	}

	docs, err := s.source.List(ctx, inputDir)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	summary := domain.BatchSummary{
		RunID:            uuid.New(),
		StartedAt:        time.Now().UTC(),
		InputDir:         inputDir,
		DocumentsFound:   len(docs),
		Failures:         []domain.DocumentFailure{},
		ValidationErrors: []domain.ValidationError{},
	}
	log := s.log.With().Str("run_id", summary.RunID.String()).Logger()
	log.Info().Str("input_dir", inputDir).Int("documents", len(docs)).
		Int("concurrency", s.cfg.Concurrency).Str("input_mode", string(s.cfg.InputMode)).
		Msg("batchService.Run: starting")

	outcomes := make([]documentOutcome, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			out, err := s.processDocument(gctx, log, doc)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Validation runs in document order so the first-seen tax id of each
	// company does not depend on scheduling.
	all := []domain.InvoiceRecord{}
	for i := range outcomes {
		out := &outcomes[i]
		if out.failure != nil {
			summary.Failures = append(summary.Failures, *out.failure)
			continue
		}
		summary.DocumentsSucceeded++
		for j := range out.records {
			summary.ValidationErrors = append(summary.ValidationErrors, engine.ValidateRecord(ctx, &out.records[j])...)
			all = append(all, out.records[j])
		}
	}

	unique, duplicates := dedup.Partition(all, s.cfg.DedupScope)

	summary.RecordsTotal = len(all)
	summary.RecordsUnique = len(unique)
	summary.RecordsDuplicate = len(duplicates)
	summary.FinishedAt = time.Now().UTC()

	log.Info().
		Int("documents_found", summary.DocumentsFound).
		Int("documents_succeeded", summary.DocumentsSucceeded).
		Int("documents_failed", len(summary.Failures)).
		Int("records_total", summary.RecordsTotal).
		Int("records_unique", summary.RecordsUnique).
		Int("records_duplicate", summary.RecordsDuplicate).
		Int("validation_errors", len(summary.ValidationErrors)).
		Str("dedup_scope", s.cfg.DedupScope.String()).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("batchService.Run: finished")

	return &domain.BatchResult{
		All:        all,
		Unique:     unique,
		Duplicates: duplicates,
		Summary:    summary,
	}, nil
}

// processDocument reads, extracts and normalizes one document. The returned
// error aborts the whole batch; every other problem becomes a failure.
func (s *batchService) processDocument(ctx context.Context, log zerolog.Logger, doc port.DocumentRef) (documentOutcome, error) {
	if err := ctx.Err(); err != nil {
		return documentOutcome{}, err
	}
	log = log.With().Str("file", doc.Name).Logger()

	input := port.ExtractInput{SourceFilename: doc.Name, ContentType: domain.ContentTypePDF}
	switch s.cfg.InputMode {
	case domain.InputModeDocument:
		data := s.source.ReadBytes(ctx, doc)
		if len(data) == 0 {
			return s.fail(log, doc, domain.FailureEmptyDocument, errors.New("document is empty or unreadable")), nil
		}
		input.Document = data
	default:
		text := s.source.ReadText(ctx, doc)
		if strings.TrimSpace(text) == "" {
			return s.fail(log, doc, domain.FailureEmptyDocument, errors.New("no text could be extracted")), nil
		}
		truncated, cut := extractor.TruncateText(text, s.cfg.MaxContextChars)
		if cut {
			log.Warn().Int("original_length", len([]rune(text))).Int("truncated_length", s.cfg.MaxContextChars).
				Msg("batchService.processDocument: truncating document text")
		}
		input.Text = truncated
	}

	raw, err := s.extractor.Extract(ctx, input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return documentOutcome{}, ctxErr
		}
		kind, ok := extractor.KindOf(err)
		if ok && kind == extractor.KindUnconfigured {
			return documentOutcome{}, fmt.Errorf("%w: %v", domain.ErrUnconfigured, err)
		}
		failureKind := domain.FailureUnknown
		if ok {
			failureKind = kind.FailureKind()
		}
		log = log.With().Bool("transport", extractor.IsTransport(err)).Logger()
		return s.fail(log, doc, failureKind, err), nil
	}

	records, err := s.normalizer.Normalize(raw.Text)
	if err != nil {
		log.Debug().Str("raw", raw.Text).Msg("batchService.processDocument: unparseable response")
		return s.fail(log, doc, domain.FailureParse, err), nil
	}
	for i := range records {
		records[i] = records[i].WithSource(doc.Name)
	}

	if len(records) == 0 {
		log.Warn().Msg("batchService.processDocument: no invoices found in response")
	} else {
		log.Info().Int("records", len(records)).Str("model", raw.Model).Msg("batchService.processDocument: extracted")
	}
	return documentOutcome{records: records}, nil
}

func (s *batchService) fail(log zerolog.Logger, doc port.DocumentRef, kind domain.FailureKind, err error) documentOutcome {
	log.Error().Err(err).Str("kind", string(kind)).Msg("batchService.processDocument: skipping document")
	return documentOutcome{failure: &domain.DocumentFailure{
		SourceFilename: doc.Name,
		Kind:           kind,
		Message:        err.Error(),
	}}
}
