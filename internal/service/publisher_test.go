package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/service"
	"github.com/twiindan/facturai/mocks"
)

func sampleResult() *domain.BatchResult {
	rec := domain.InvoiceRecord{InvoiceNumber: domain.StrPtr("F-1"), SourceFilename: "a.pdf"}
	return &domain.BatchResult{
		All:        []domain.InvoiceRecord{rec},
		Unique:     []domain.InvoiceRecord{rec},
		Duplicates: []domain.InvoiceRecord{},
		Summary: domain.BatchSummary{
			InputDir:           "Data",
			DocumentsFound:     1,
			DocumentsSucceeded: 1,
			RecordsTotal:       1,
			RecordsUnique:      1,
			Failures:           []domain.DocumentFailure{},
			ValidationErrors:   []domain.ValidationError{},
		},
	}
}

func TestPublisher_Publish_AllSinksSucceed(t *testing.T) {
	result := sampleResult()
	csv := new(mocks.MockResultSink)
	s3 := new(mocks.MockResultSink)
	csv.On("Publish", mock.Anything, result).Return(nil)
	s3.On("Publish", mock.Anything, result).Return(nil)

	p := service.NewPublisher(zerolog.Nop())
	p.AddCritical(csv)
	p.AddOptional(s3)

	require.NoError(t, p.Publish(context.Background(), result))
	csv.AssertExpectations(t)
	s3.AssertExpectations(t)
}

func TestPublisher_Publish_CriticalFailureStops(t *testing.T) {
	result := sampleResult()
	csv := new(mocks.MockResultSink)
	s3 := new(mocks.MockResultSink)
	csv.On("Name").Return("csv")
	csv.On("Publish", mock.Anything, result).Return(errors.New("disk full"))

	p := service.NewPublisher(zerolog.Nop())
	p.AddCritical(csv)
	p.AddOptional(s3)

	err := p.Publish(context.Background(), result)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publishing to csv")
	assert.Contains(t, err.Error(), "disk full")
	s3.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPublisher_Publish_OptionalFailureIsLogged(t *testing.T) {
	result := sampleResult()
	s3 := new(mocks.MockResultSink)
	db := new(mocks.MockResultSink)
	s3.On("Name").Return("s3")
	s3.On("Publish", mock.Anything, result).Return(errors.New("access denied"))
	db.On("Publish", mock.Anything, result).Return(nil)

	p := service.NewPublisher(zerolog.Nop())
	p.AddOptional(s3)
	p.AddOptional(db)

	assert.NoError(t, p.Publish(context.Background(), result))
	db.AssertExpectations(t)
}

func TestPrepareOutputDir(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out", "nested")

		require.NoError(t, service.PrepareOutputDir(dir))

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "taken")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		err := service.PrepareOutputDir(filepath.Join(file, "out"))

		assert.ErrorIs(t, err, domain.ErrOutputNotWritable)
	})
}

func TestSummaryFileSink_Publish(t *testing.T) {
	dir := t.TempDir()
	sink := service.NewSummaryFileSink(dir, "summary.json")
	assert.Equal(t, "summary", sink.Name())

	require.NoError(t, sink.Publish(context.Background(), sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Data", got["input_dir"])
	assert.EqualValues(t, 1, got["records_total"])
	assert.Equal(t, []any{}, got["failures"])
}

func TestRepositorySink_Publish(t *testing.T) {
	result := sampleResult()
	repo := new(mocks.MockInvoiceRecordRepo)
	repo.On("SaveBatch", mock.Anything, result).Return(nil).Once()

	sink := service.NewRepositorySink(repo)

	assert.Equal(t, "postgres", sink.Name())
	require.NoError(t, sink.Publish(context.Background(), result))
	repo.AssertExpectations(t)

	failing := new(mocks.MockInvoiceRecordRepo)
	failing.On("SaveBatch", mock.Anything, result).Return(errors.New("connection refused"))
	assert.Error(t, service.NewRepositorySink(failing).Publish(context.Background(), result))
}
