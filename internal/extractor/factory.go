package extractor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/port"
)

// ProviderFactory creates an Extractor from the extractor config.
type ProviderFactory func(cfg *config.ExtractorConfig, log zerolog.Logger) (port.Extractor, error)

// registry of provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates an Extractor using the registered factory for cfg.Provider.
func NewExtractor(cfg *config.ExtractorConfig, log zerolog.Logger) (port.Extractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, cfg.Provider)
	}
	return factory(cfg, log)
}

// RequireAPIKey fails fast with an unconfigured error when no credential is set.
func RequireAPIKey(provider string, cfg *config.ExtractorConfig) error {
	if cfg.APIKey == "" {
		return NewError(KindUnconfigured, provider, domain.ErrUnconfigured)
	}
	return nil
}
