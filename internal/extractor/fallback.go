package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/port"
)

// circuitState tracks rate-limit backoff for a single extractor.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackExtractor tries extractors in order, skipping those still backing
// off after a rate limit. It implements port.Extractor.
type FallbackExtractor struct {
	extractors []port.Extractor
	names      []string
	circuits   []*circuitState
	log        zerolog.Logger
	now        func() time.Time
}

// NewFallbackExtractor creates a FallbackExtractor from an ordered list of
// extractors and their provider names.
func NewFallbackExtractor(extractors []port.Extractor, names []string, log zerolog.Logger) *FallbackExtractor {
	circuits := make([]*circuitState, len(extractors))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackExtractor{
		extractors: extractors,
		names:      names,
		circuits:   circuits,
		log:        log,
		now:        time.Now,
	}
}

func (f *FallbackExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.RawResponse, error) {
	now := f.now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, ext := range f.extractors {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.log.Debug().Str("provider", f.names[i]).Time("reset_at", resetAt).
				Msg("extractor.FallbackExtractor: skipping, circuit open")
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := ext.Extract(ctx, input)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}

		f.log.Warn().Err(err).Str("provider", f.names[i]).Str("file", input.SourceFilename).
			Msg("extractor.FallbackExtractor: provider failed")
		lastErr = err

		var xErr *Error
		if errors.As(err, &xErr) && xErr.RetryAfter > 0 {
			resetAt := now.Add(xErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := earliestReset.Sub(f.now())
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", errors.New("all providers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// NewChain creates the configured extractor, wrapped in a FallbackExtractor
// when a fallback provider is set.
func NewChain(cfg *config.ExtractorConfig, log zerolog.Logger) (port.Extractor, error) {
	primary, err := NewExtractor(cfg, log)
	if err != nil {
		return nil, err
	}
	fbCfg, ok := cfg.Fallback()
	if !ok {
		return primary, nil
	}
	secondary, err := NewExtractor(&fbCfg, log)
	if err != nil {
		return nil, fmt.Errorf("fallback provider %s: %w", fbCfg.Provider, err)
	}
	log.Info().Str("primary", cfg.Provider).Str("fallback", fbCfg.Provider).Msg("extractor.NewChain: fallback enabled")
	return NewFallbackExtractor(
		[]port.Extractor{primary, secondary},
		[]string{cfg.Provider, fbCfg.Provider},
		log,
	), nil
}
