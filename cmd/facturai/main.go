package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/csvexport"
	"github.com/twiindan/facturai/internal/dedup"
	"github.com/twiindan/facturai/internal/docsource"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/extractor/claude"
	"github.com/twiindan/facturai/internal/extractor/gemini"
	"github.com/twiindan/facturai/internal/extractor/mock"
	"github.com/twiindan/facturai/internal/extractor/openai"
	"github.com/twiindan/facturai/internal/logger"
	"github.com/twiindan/facturai/internal/normalizer"
	"github.com/twiindan/facturai/internal/repository/postgres"
	"github.com/twiindan/facturai/internal/service"
	s3storage "github.com/twiindan/facturai/internal/storage/s3"
	"github.com/twiindan/facturai/internal/xlsxexport"
)

type runFlags struct {
	inputDir     string
	outputDir    string
	mockResponse string
	provider     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "facturai",
		Short:         "Extract structured invoice data from PDF files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every PDF of the input directory",
		Long: `Reads each PDF of the input directory, asks the configured extraction
provider for its invoices and writes the all, unique and duplicates CSV files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, flags)
		},
	}
	cmd.Flags().StringVar(&flags.inputDir, "input-dir", "", "directory containing the PDF invoices (default from FACTURAI_INPUT_DIR)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "directory for the CSV files (default from FACTURAI_OUTPUT_DIR)")
	cmd.Flags().StringVar(&flags.mockResponse, "mock-response", "", "file whose content is used as the provider response for every document")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "extraction provider: gemini, claude, openai or mock")
	return cmd
}

func registerProviders() {
	gemini.Register()
	claude.Register()
	openai.Register()
	mock.Register()
}

func run(ctx context.Context, flags runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg, flags)

	log := logger.New(&cfg.Log)

	registerProviders()
	ext, err := extractor.NewChain(&cfg.Extractor, log)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	if err := service.PrepareOutputDir(cfg.Output.Dir); err != nil {
		return err
	}

	publisher, cleanup, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	batchSvc := service.NewBatchService(
		docsource.NewFileSystem(log),
		ext,
		normalizer.New(log),
		service.BatchConfig{
			InputMode:       domain.InputMode(cfg.Extractor.InputMode),
			MaxContextChars: cfg.Extractor.MaxContextChars,
			Concurrency:     cfg.Batch.Concurrency,
			DedupScope:      dedup.ScopeFor(cfg.Dedup.IncludeSourceFilename),
		},
		log,
	)

	result, err := batchSvc.Run(ctx, cfg.Input.Dir)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	if err := publisher.Publish(ctx, result); err != nil {
		return err
	}

	log.Info().
		Str("output_dir", cfg.Output.Dir).
		Int("records_unique", result.Summary.RecordsUnique).
		Int("records_duplicate", result.Summary.RecordsDuplicate).
		Int("failures", len(result.Summary.Failures)).
		Msg("run: completed")
	return nil
}

func applyFlags(cfg *config.Config, flags runFlags) {
	if flags.inputDir != "" {
		cfg.Input.Dir = flags.inputDir
	}
	if flags.outputDir != "" {
		cfg.Output.Dir = flags.outputDir
	}
	if flags.provider != "" {
		cfg.Extractor.Provider = flags.provider
	}
	if flags.mockResponse != "" {
		cfg.Extractor.Provider = "mock"
		cfg.Extractor.MockResponsePath = flags.mockResponse
	}
	if cfg.Extractor.FallbackProvider == cfg.Extractor.Provider || cfg.Extractor.Provider == "mock" {
		cfg.Extractor.FallbackProvider = ""
	}
}

// buildPublisher wires the CSV sink as critical and every other configured
// sink as optional. The returned cleanup closes any opened connection.
func buildPublisher(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*service.Publisher, func(), error) {
	cleanup := func() {}
	publisher := service.NewPublisher(log)
	publisher.AddCritical(csvexport.NewFileSink(&cfg.Output, log))

	if cfg.Output.XLSXFile != "" {
		publisher.AddOptional(xlsxexport.NewSink(&cfg.Output, log))
	}
	if cfg.Output.SummaryFile != "" {
		publisher.AddOptional(service.NewSummaryFileSink(cfg.Output.Dir, cfg.Output.SummaryFile))
	}

	if cfg.S3.Enabled() {
		s3Client, err := s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		publisher.AddOptional(s3storage.NewResultSink(s3Client, &cfg.S3, &cfg.Output, log))
	}

	if cfg.DB.Enabled {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = func() { _ = db.Close() }
		publisher.AddOptional(service.NewRepositorySink(postgres.NewInvoiceRecordRepo(db, log)))
	}

	return publisher, cleanup, nil
}
