package s3_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/port"
	"github.com/twiindan/facturai/internal/storage/s3"
	"github.com/twiindan/facturai/mocks"
)

var outputCfg = &config.OutputConfig{
	AllFile:        "invoices_all.csv",
	UniqueFile:     "invoices_unique.csv",
	DuplicatesFile: "invoices_duplicates.csv",
}

func newResult() *domain.BatchResult {
	rec := domain.InvoiceRecord{InvoiceNumber: domain.StrPtr("1"), SourceFilename: "a.pdf"}
	return &domain.BatchResult{
		All:    []domain.InvoiceRecord{rec},
		Unique: []domain.InvoiceRecord{rec},
		Summary: domain.BatchSummary{
			RunID:          uuid.MustParse("11111111-2222-3333-4444-555555555555"),
			DocumentsFound: 1,
		},
	}
}

func TestResultSink_UploadsViewsAndSummary(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	var keys []string
	var summaryBody string
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "bucket" && in.Metadata["run-id"] == "11111111-2222-3333-4444-555555555555"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(port.UploadInput)
		keys = append(keys, in.Key)
		if in.ContentType == "application/json" {
			b, _ := io.ReadAll(in.Body)
			summaryBody = string(b)
		}
	}).Return(&port.UploadOutput{Location: "s3://bucket/x"}, nil)

	sink := s3.NewResultSink(storage, &config.S3Config{Bucket: "bucket", Prefix: "facturai"}, outputCfg, zerolog.Nop())
	require.NoError(t, sink.Publish(context.Background(), newResult()))

	run := "11111111-2222-3333-4444-555555555555"
	assert.Equal(t, []string{
		"facturai/" + run + "/invoices_all.csv",
		"facturai/" + run + "/invoices_unique.csv",
		"facturai/" + run + "/invoices_duplicates.csv",
		"facturai/" + run + "/summary.json",
	}, keys)
	assert.Contains(t, summaryBody, `"documents_found": 1`)
	assert.Equal(t, "s3", sink.Name())
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestResultSink_RollsBackOnFailure(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	run := "11111111-2222-3333-4444-555555555555"
	failing := "facturai/" + run + "/invoices_unique.csv"

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool { return in.Key == failing })).
		Return(nil, errors.New("access denied"))
	storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{}, nil)
	storage.On("Delete", mock.Anything, "bucket", "facturai/"+run+"/invoices_all.csv").Return(nil)

	sink := s3.NewResultSink(storage, &config.S3Config{Bucket: "bucket", Prefix: "facturai"}, outputCfg, zerolog.Nop())
	err := sink.Publish(context.Background(), newResult())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	storage.AssertExpectations(t)
	storage.AssertNumberOfCalls(t, "Upload", 2)
}

func TestResultSink_KeyFor(t *testing.T) {
	sink := s3.NewResultSink(nil, &config.S3Config{Prefix: "exports/"}, outputCfg, zerolog.Nop())

	assert.Equal(t, "exports/run/summary.json", sink.KeyFor("run", "summary.json"))
}
