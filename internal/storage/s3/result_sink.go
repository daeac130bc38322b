package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/csvexport"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/port"
)

const summaryObjectName = "summary.json"

// ResultSink uploads the CSV views and the summary of a batch under
// <prefix>/<run_id>/.
type ResultSink struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
	output  *config.OutputConfig
	log     zerolog.Logger
}

// NewResultSink creates an S3 result sink.
func NewResultSink(storage port.ObjectStorage, s3cfg *config.S3Config, output *config.OutputConfig, log zerolog.Logger) *ResultSink {
	return &ResultSink{
		storage: storage,
		bucket:  s3cfg.Bucket,
		prefix:  s3cfg.Prefix,
		output:  output,
		log:     log,
	}
}

func (s *ResultSink) Name() string { return "s3" }

// Publish uploads every object of the run. If one upload fails, the objects
// already uploaded for this run are deleted so a run is either complete or
// absent.
func (s *ResultSink) Publish(ctx context.Context, result *domain.BatchResult) error {
	objects, err := s.objects(result)
	if err != nil {
		return err
	}

	var uploaded []string
	for _, obj := range objects {
		out, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.bucket,
			Key:         obj.key,
			Body:        bytes.NewReader(obj.data),
			ContentType: obj.contentType,
			Size:        int64(len(obj.data)),
			Metadata:    map[string]string{"run-id": result.Summary.RunID.String(), "input-dir": result.Summary.InputDir},
		})
		if err != nil {
			s.rollback(ctx, uploaded)
			return fmt.Errorf("uploading %s: %w", obj.key, err)
		}
		uploaded = append(uploaded, obj.key)
		s.log.Info().Str("key", obj.key).Str("location", out.Location).Msg("s3.ResultSink: uploaded")
	}
	return nil
}

// KeyFor returns the object key of name for a run.
func (s *ResultSink) KeyFor(runID, name string) string {
	return path.Join(s.prefix, runID, name)
}

type object struct {
	key         string
	data        []byte
	contentType string
}

func (s *ResultSink) objects(result *domain.BatchResult) ([]object, error) {
	runID := result.Summary.RunID.String()
	var objs []object
	for _, v := range csvexport.Views(s.output, result) {
		data, err := csvexport.Render(v.Records, s.output.BOM)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", v.FileName, err)
		}
		objs = append(objs, object{key: s.KeyFor(runID, v.FileName), data: data, contentType: "text/csv"})
	}
	summary, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling summary: %w", err)
	}
	objs = append(objs, object{key: s.KeyFor(runID, summaryObjectName), data: summary, contentType: "application/json"})
	return objs, nil
}

func (s *ResultSink) rollback(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, s.bucket, key); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("s3.ResultSink: rollback delete failed")
		}
	}
}
