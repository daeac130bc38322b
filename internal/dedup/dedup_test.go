package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiindan/facturai/internal/dedup"
	"github.com/twiindan/facturai/internal/domain"
)

func rec(file, number string, total *float64) domain.InvoiceRecord {
	return domain.InvoiceRecord{
		ProviderName:   domain.StrPtr("Acme"),
		InvoiceNumber:  domain.StrPtr(number),
		TotalAmount:    total,
		SourceFilename: file,
	}
}

func TestPartition_FirstSeenOrder(t *testing.T) {
	records := []domain.InvoiceRecord{
		rec("a.pdf", "1", domain.FloatPtr(10)),
		rec("a.pdf", "2", domain.FloatPtr(20)),
		rec("a.pdf", "1", domain.FloatPtr(10)),
		rec("a.pdf", "3", nil),
		rec("a.pdf", "1", domain.FloatPtr(10)),
	}

	unique, dups := dedup.Partition(records, dedup.ScopeRecord)

	require.Len(t, unique, 3)
	assert.Equal(t, "1", *unique[0].InvoiceNumber)
	assert.Equal(t, "2", *unique[1].InvoiceNumber)
	assert.Equal(t, "3", *unique[2].InvoiceNumber)
	assert.Len(t, dups, 2)
	assert.Equal(t, len(records), len(unique)+len(dups))
}

func TestPartition_Idempotent(t *testing.T) {
	records := []domain.InvoiceRecord{
		rec("a.pdf", "1", domain.FloatPtr(10)),
		rec("a.pdf", "1", domain.FloatPtr(10)),
		rec("b.pdf", "2", nil),
	}

	unique, _ := dedup.Partition(records, dedup.ScopeRecord)
	again, dups := dedup.Partition(unique, dedup.ScopeRecord)

	assert.Equal(t, unique, again)
	assert.Empty(t, dups)
}

func TestPartition_Exactness(t *testing.T) {
	records := []domain.InvoiceRecord{
		rec("a.pdf", "1", domain.FloatPtr(10)),
		rec("a.pdf", "1", domain.FloatPtr(10.01)),
		rec("a.pdf", "1 ", domain.FloatPtr(10)),
		rec("a.pdf", "1", nil),
	}

	unique, dups := dedup.Partition(records, dedup.ScopeRecord)

	assert.Len(t, unique, 4)
	assert.Empty(t, dups)
}

func TestPartition_NullDiffersFromEmpty(t *testing.T) {
	withNull := domain.InvoiceRecord{SourceFilename: "a.pdf"}
	withEmpty := domain.InvoiceRecord{SourceFilename: "a.pdf", IBAN: domain.StrPtr("")}

	unique, _ := dedup.Partition([]domain.InvoiceRecord{withNull, withEmpty}, dedup.ScopeRecord)

	assert.Len(t, unique, 2)
}

func TestPartition_Scope(t *testing.T) {
	records := []domain.InvoiceRecord{
		rec("a.pdf", "1", domain.FloatPtr(10)),
		rec("b.pdf", "1", domain.FloatPtr(10)),
	}

	unique, dups := dedup.Partition(records, dedup.ScopeRecord)
	assert.Len(t, unique, 2)
	assert.Empty(t, dups)

	unique, dups = dedup.Partition(records, dedup.ScopeContent)
	assert.Len(t, unique, 1)
	require.Len(t, dups, 1)
	assert.Equal(t, "b.pdf", dups[0].SourceFilename)
}

func TestPartition_Empty(t *testing.T) {
	unique, dups := dedup.Partition(nil, dedup.ScopeRecord)

	assert.Empty(t, unique)
	assert.NotNil(t, dups)
	assert.Empty(t, dups)
}

func TestFingerprint_TypedValues(t *testing.T) {
	a := domain.InvoiceRecord{InvoiceNumber: domain.StrPtr("10")}
	b := domain.InvoiceRecord{TotalAmount: domain.FloatPtr(10)}

	assert.NotEqual(t, dedup.Fingerprint(&a, dedup.ScopeRecord), dedup.Fingerprint(&b, dedup.ScopeRecord))
	assert.Equal(t, dedup.Fingerprint(&a, dedup.ScopeRecord), dedup.Fingerprint(&a, dedup.ScopeRecord))
}

func TestScopeFor(t *testing.T) {
	assert.Equal(t, dedup.ScopeRecord, dedup.ScopeFor(true))
	assert.Equal(t, dedup.ScopeContent, dedup.ScopeFor(false))
	assert.Equal(t, "content", dedup.ScopeContent.String())
}
