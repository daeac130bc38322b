package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/port"
)

// insertChunk keeps a multi-row insert under the 65535 parameter limit.
const insertChunk = 1000

// InvoiceRecordRow is the persisted shape of one record of the all view.
type InvoiceRecordRow struct {
	ID          uuid.UUID `db:"id"`
	BatchID     uuid.UUID `db:"batch_id"`
	Position    int       `db:"position"`
	IsDuplicate bool      `db:"is_duplicate"`
	domain.InvoiceRecord
}

type batchRunRow struct {
	ID                 uuid.UUID `db:"id"`
	StartedAt          time.Time `db:"started_at"`
	FinishedAt         time.Time `db:"finished_at"`
	InputDir           string    `db:"input_dir"`
	DocumentsFound     int       `db:"documents_found"`
	DocumentsSucceeded int       `db:"documents_succeeded"`
	RecordsTotal       int       `db:"records_total"`
	RecordsUnique      int       `db:"records_unique"`
	RecordsDuplicate   int       `db:"records_duplicate"`
	Summary            []byte    `db:"summary"`
}

type invoiceRecordRepo struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewInvoiceRecordRepo creates a new PostgreSQL-backed InvoiceRecordRepository.
func NewInvoiceRecordRepo(db *sqlx.DB, log zerolog.Logger) port.InvoiceRecordRepository {
	return &invoiceRecordRepo{db: db, log: log}
}

// SaveBatch stores the run and every record of the all view in one transaction.
func (r *invoiceRecordRepo) SaveBatch(ctx context.Context, result *domain.BatchResult) error {
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	s := result.Summary
	run := batchRunRow{
		ID:                 s.RunID,
		StartedAt:          s.StartedAt,
		FinishedAt:         s.FinishedAt,
		InputDir:           s.InputDir,
		DocumentsFound:     s.DocumentsFound,
		DocumentsSucceeded: s.DocumentsSucceeded,
		RecordsTotal:       s.RecordsTotal,
		RecordsUnique:      s.RecordsUnique,
		RecordsDuplicate:   s.RecordsDuplicate,
		Summary:            summary,
	}
	rows := BuildRows(result)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO batch_runs (
			id, started_at, finished_at, input_dir, documents_found, documents_succeeded,
			records_total, records_unique, records_duplicate, summary
		) VALUES (
			:id, :started_at, :finished_at, :input_dir, :documents_found, :documents_succeeded,
			:records_total, :records_unique, :records_duplicate, :summary
		)`, run); err != nil {
		return fmt.Errorf("inserting batch run: %w", err)
	}

	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO invoice_records (
				id, batch_id, position, is_duplicate, source_filename,
				provider_tax_id, provider_name, client_tax_id, client_name,
				invoice_number, invoice_date, taxable_base, vat_amount,
				withholding_amount, total_amount, iban, payment_method
			) VALUES (
				:id, :batch_id, :position, :is_duplicate, :source_filename,
				:provider_tax_id, :provider_name, :client_tax_id, :client_name,
				:invoice_number, :invoice_date, :taxable_base, :vat_amount,
				:withholding_amount, :total_amount, :iban, :payment_method
			)`, rows[start:end]); err != nil {
			return fmt.Errorf("inserting invoice records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	r.log.Info().Str("run_id", s.RunID.String()).Int("records", len(rows)).Msg("postgres.invoiceRecordRepo.SaveBatch: stored batch")
	return nil
}

// BuildRows turns the all view into rows, flagging every record that is not
// part of the unique view. Unique is an ordered subsequence of All, so a
// single forward walk pairs them.
func BuildRows(result *domain.BatchResult) []InvoiceRecordRow {
	rows := make([]InvoiceRecordRow, 0, len(result.All))
	u := 0
	for i := range result.All {
		isUnique := u < len(result.Unique) && reflect.DeepEqual(result.All[i], result.Unique[u])
		if isUnique {
			u++
		}
		rows = append(rows, InvoiceRecordRow{
			ID:            uuid.New(),
			BatchID:       result.Summary.RunID,
			Position:      i,
			IsDuplicate:   !isUnique,
			InvoiceRecord: result.All[i],
		})
	}
	return rows
}
