package domain

import (
	"time"

	"github.com/google/uuid"
)

// ValidationError is a non-fatal data-quality finding about one record.
type ValidationError struct {
	RuleKey        string      `json:"rule_key"`
	Role           CompanyRole `json:"role,omitempty"`
	Company        string      `json:"company,omitempty"`
	TaxID          string      `json:"tax_id,omitempty"`
	ExistingTaxID  string      `json:"existing_tax_id,omitempty"`
	Field          string      `json:"field,omitempty"`
	SourceFilename string      `json:"source_filename"`
	Message        string      `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// DocumentFailure records a document skipped by the batch.
type DocumentFailure struct {
	SourceFilename string      `json:"source_filename"`
	Kind           FailureKind `json:"kind"`
	Message        string      `json:"message"`
}

// BatchSummary is the observability report of one run. It never affects the
// contents of the output views.
type BatchSummary struct {
	RunID              uuid.UUID         `json:"run_id"`
	StartedAt          time.Time         `json:"started_at"`
	FinishedAt         time.Time         `json:"finished_at"`
	InputDir           string            `json:"input_dir"`
	DocumentsFound     int               `json:"documents_found"`
	DocumentsSucceeded int               `json:"documents_succeeded"`
	Failures           []DocumentFailure `json:"failures"`
	ValidationErrors   []ValidationError `json:"validation_errors"`
	RecordsTotal       int               `json:"records_total"`
	RecordsUnique      int               `json:"records_unique"`
	RecordsDuplicate   int               `json:"records_duplicate"`
}

// BatchResult holds the three output views plus the summary.
type BatchResult struct {
	All        []InvoiceRecord
	Unique     []InvoiceRecord
	Duplicates []InvoiceRecord
	Summary    BatchSummary
}
