package csvexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
)

// View is one of the three persisted tables of a batch.
type View struct {
	FileName string
	Records  []domain.InvoiceRecord
}

// Views returns the all, unique and duplicates tables with their configured
// file names.
func Views(cfg *config.OutputConfig, result *domain.BatchResult) []View {
	return []View{
		{FileName: cfg.AllFile, Records: result.All},
		{FileName: cfg.UniqueFile, Records: result.Unique},
		{FileName: cfg.DuplicatesFile, Records: result.Duplicates},
	}
}

// FileSink writes the three views as CSV files into the output directory.
type FileSink struct {
	cfg *config.OutputConfig
	log zerolog.Logger
}

// NewFileSink creates a CSV file sink.
func NewFileSink(cfg *config.OutputConfig, log zerolog.Logger) *FileSink {
	return &FileSink{cfg: cfg, log: log}
}

func (s *FileSink) Name() string { return "csv" }

// Publish writes every view. Each file is written to a temporary name and
// renamed, so a failed run never leaves a half-written table behind.
func (s *FileSink) Publish(ctx context.Context, result *domain.BatchResult) error {
	for _, v := range Views(s.cfg, result) {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := Render(v.Records, s.cfg.BOM)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", v.FileName, err)
		}
		path := filepath.Join(s.cfg.Dir, v.FileName)
		if err := writeFileAtomic(path, data); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		s.log.Info().Str("path", path).Int("records", len(v.Records)).Msg("csvexport.FileSink: wrote view")
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
