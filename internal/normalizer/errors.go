package normalizer

import (
	"fmt"
	"unicode/utf8"
)

// ParseError means the response text is not a JSON object or array of objects.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing extraction response: %v (raw: %s)", e.Err, abbreviate(e.Raw, 200))
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func abbreviate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
