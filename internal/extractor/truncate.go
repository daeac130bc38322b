package extractor

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout applies when the config leaves timeout_secs at zero.
const DefaultTimeout = 120 * time.Second

// TruncateText cuts text to at most maxChars runes. The second return value
// reports whether anything was cut.
func TruncateText(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || len(text) <= maxChars {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, false
	}
	return string(runes[:maxChars]), true
}

// EnforceContextLimit truncates text that the caller failed to pre-truncate
// and logs the original and truncated lengths.
func EnforceContextLimit(log zerolog.Logger, provider, text string, maxChars int) string {
	truncated, cut := TruncateText(text, maxChars)
	if cut {
		log.Warn().
			Str("provider", provider).
			Int("original_length", len([]rune(text))).
			Int("truncated_length", maxChars).
			Msg("extractor: document text exceeds max context length, truncating")
	}
	return truncated
}

// Timeout returns the per-call timeout for a config value in seconds.
func Timeout(secs int) time.Duration {
	if secs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(secs) * time.Second
}
