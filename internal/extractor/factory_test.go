package extractor_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/port"
)

func TestFactory_RegisterAndCreate(t *testing.T) {
	extractor.RegisterProvider("test-provider", func(cfg *config.ExtractorConfig, _ zerolog.Logger) (port.Extractor, error) {
		return &stubExtractor{model: cfg.Model}, nil
	})

	e, err := extractor.NewExtractor(&config.ExtractorConfig{
		Provider: "test-provider",
		Model:    "test-model",
	}, zerolog.Nop())

	require.NoError(t, err)
	out, err := e.Extract(context.Background(), port.ExtractInput{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "test-model", out.Model)
}

func TestFactory_UnknownProvider(t *testing.T) {
	e, err := extractor.NewExtractor(&config.ExtractorConfig{
		Provider: "nonexistent-provider-xyz",
	}, zerolog.Nop())

	assert.Nil(t, e)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestRequireAPIKey(t *testing.T) {
	err := extractor.RequireAPIKey("gemini", &config.ExtractorConfig{})

	require.Error(t, err)
	kind, ok := extractor.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, extractor.KindUnconfigured, kind)
	assert.ErrorIs(t, err, domain.ErrUnconfigured)

	assert.NoError(t, extractor.RequireAPIKey("gemini", &config.ExtractorConfig{APIKey: "k"}))
}

// stubExtractor is a minimal Extractor for testing the factory.
type stubExtractor struct {
	model string
}

func (s *stubExtractor) Extract(_ context.Context, _ port.ExtractInput) (*port.RawResponse, error) {
	return &port.RawResponse{Model: s.model}, nil
}
