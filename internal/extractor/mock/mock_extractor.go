// Package mock provides an extractor that replays a canned response file,
// for offline runs and demos.
package mock

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/port"
)

const providerName = "mock"

// Extractor returns the same response text for every document.
type Extractor struct {
	text string
	path string
}

// NewExtractor reads cfg.MockResponsePath once. No API key is needed.
func NewExtractor(cfg *config.ExtractorConfig, log zerolog.Logger) (*Extractor, error) {
	if cfg.MockResponsePath == "" {
		return nil, extractor.NewError(extractor.KindUnconfigured, providerName, fmt.Errorf("mock_response_path is empty"))
	}
	data, err := os.ReadFile(cfg.MockResponsePath)
	if err != nil {
		return nil, extractor.NewError(extractor.KindUnconfigured, providerName, fmt.Errorf("reading mock response: %w", err))
	}
	log.Info().Str("path", cfg.MockResponsePath).Msg("mock.NewExtractor: replaying canned response")
	return &Extractor{text: string(data), path: cfg.MockResponsePath}, nil
}

// Register adds the provider to the extractor registry.
func Register() {
	extractor.RegisterProvider(providerName, func(cfg *config.ExtractorConfig, log zerolog.Logger) (port.Extractor, error) {
		return NewExtractor(cfg, log)
	})
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, extractor.ClassifyCallError(providerName, err)
	}
	return &port.RawResponse{Text: e.text, Model: providerName, PromptUsed: e.path}, nil
}
