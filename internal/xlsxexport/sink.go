// Package xlsxexport writes the batch views into a single Excel workbook.
package xlsxexport

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
)

// Sheet names, in workbook order.
const (
	SheetAll        = "All"
	SheetUnique     = "Unique"
	SheetDuplicates = "Duplicates"
	SheetValidation = "Validation"
	SheetFailures   = "Failures"
)

var validationHeaders = []string{"source_filename", "rule_key", "role", "company", "tax_id", "existing_tax_id", "field", "message"}

var failureHeaders = []string{"source_filename", "kind", "message"}

// Sink writes output.xlsx_file into the output directory.
type Sink struct {
	path string
	log  zerolog.Logger
}

// NewSink creates a workbook sink for cfg.XLSXFile.
func NewSink(cfg *config.OutputConfig, log zerolog.Logger) *Sink {
	return &Sink{path: filepath.Join(cfg.Dir, cfg.XLSXFile), log: log}
}

func (s *Sink) Name() string { return "xlsx" }

// Publish builds the workbook and saves it.
func (s *Sink) Publish(_ context.Context, result *domain.BatchResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetAll); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	for _, name := range []string{SheetUnique, SheetDuplicates, SheetValidation, SheetFailures} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	views := []struct {
		sheet   string
		records []domain.InvoiceRecord
	}{
		{SheetAll, result.All},
		{SheetUnique, result.Unique},
		{SheetDuplicates, result.Duplicates},
	}
	for _, v := range views {
		if err := writeRecords(f, v.sheet, v.records); err != nil {
			return err
		}
	}
	if err := writeValidation(f, result.Summary.ValidationErrors); err != nil {
		return err
	}
	if err := writeFailures(f, result.Summary.Failures); err != nil {
		return err
	}

	activeIndex, _ := f.GetSheetIndex(SheetAll)
	f.SetActiveSheet(activeIndex)

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	s.log.Info().Str("path", s.path).Msg("xlsxexport.Sink: wrote workbook")
	return nil
}

func writeRecords(f *excelize.File, sheet string, records []domain.InvoiceRecord) error {
	if err := writeHeader(f, sheet, domain.OutputColumns); err != nil {
		return err
	}
	for i := range records {
		row := i + 2
		for col, name := range domain.OutputColumns {
			v, _ := records[i].Field(name)
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
			}
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "B", "M", 18); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	return nil
}

func writeValidation(f *excelize.File, errs []domain.ValidationError) error {
	if err := writeHeader(f, SheetValidation, validationHeaders); err != nil {
		return err
	}
	for i, ve := range errs {
		values := []string{ve.SourceFilename, ve.RuleKey, string(ve.Role), ve.Company, ve.TaxID, ve.ExistingTaxID, ve.Field, ve.Message}
		if err := writeRow(f, SheetValidation, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeFailures(f *excelize.File, failures []domain.DocumentFailure) error {
	if err := writeHeader(f, SheetFailures, failureHeaders); err != nil {
		return err
	}
	for i, df := range failures {
		if err := writeRow(f, SheetFailures, i+2, []string{df.SourceFilename, string(df.Kind), df.Message}); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	return writeRow(f, sheet, 1, headers)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
