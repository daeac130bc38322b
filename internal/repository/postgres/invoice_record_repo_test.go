package postgres_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiindan/facturai/internal/dedup"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/repository/postgres"
)

func TestBuildRows_FlagsDuplicates(t *testing.T) {
	a := domain.InvoiceRecord{InvoiceNumber: domain.StrPtr("1"), SourceFilename: "a.pdf"}
	b := domain.InvoiceRecord{InvoiceNumber: domain.StrPtr("2"), SourceFilename: "a.pdf"}
	all := []domain.InvoiceRecord{a, a, b, a, b}
	unique, dups := dedup.Partition(all, dedup.ScopeRecord)
	runID := uuid.New()

	rows := postgres.BuildRows(&domain.BatchResult{
		All: all, Unique: unique, Duplicates: dups,
		Summary: domain.BatchSummary{RunID: runID},
	})

	require.Len(t, rows, 5)
	flags := make([]bool, len(rows))
	for i, r := range rows {
		flags[i] = r.IsDuplicate
		assert.Equal(t, i, r.Position)
		assert.Equal(t, runID, r.BatchID)
		assert.NotEqual(t, uuid.Nil, r.ID)
	}
	assert.Equal(t, []bool{false, true, false, true, true}, flags)
}

func TestBuildRows_ContentScope(t *testing.T) {
	a := domain.InvoiceRecord{InvoiceNumber: domain.StrPtr("1"), SourceFilename: "a.pdf"}
	b := domain.InvoiceRecord{InvoiceNumber: domain.StrPtr("1"), SourceFilename: "b.pdf"}
	all := []domain.InvoiceRecord{a, b}
	unique, dups := dedup.Partition(all, dedup.ScopeContent)

	rows := postgres.BuildRows(&domain.BatchResult{All: all, Unique: unique, Duplicates: dups})

	require.Len(t, rows, 2)
	assert.False(t, rows[0].IsDuplicate)
	assert.True(t, rows[1].IsDuplicate)
	assert.Equal(t, "b.pdf", rows[1].SourceFilename)
}

func TestBuildRows_Empty(t *testing.T) {
	assert.Empty(t, postgres.BuildRows(&domain.BatchResult{}))
}
