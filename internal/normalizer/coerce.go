package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// coerceString converts a JSON scalar to a trimmed string. Empty strings
// stay empty; the required-fields validator reports them.
func coerceString(v any) (*string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return &s, true
	case json.Number:
		s := formatNumber(t)
		return &s, true
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s, true
	case bool:
		s := strconv.FormatBool(t)
		return &s, true
	default:
		return nil, false
	}
}

// formatNumber renders a JSON number without exponent notation, so tax ids
// and invoice numbers the model emitted as numbers keep their digits.
func formatNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

// coerceAmount converts a JSON number or numeric string to a float. Blank
// strings map to null without a warning.
func coerceAmount(v any) (*float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, false
		}
		return &f, true
	case float64:
		return &t, true
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, true
		}
		f, ok := ParseAmount(t)
		if !ok {
			return nil, false
		}
		return &f, true
	default:
		return nil, false
	}
}

// ParseAmount parses a monetary string. It accepts currency symbols and
// codes before or after the number, a leading sign or trailing minus, and
// both "1,234.56" and the European "1.234,56" formats. A single separator is
// taken as decimal. Letters inside the number, exponents included, are
// rejected.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimFunc(s, isAmountAffix)
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		case unicode.IsSpace(r), unicode.Is(unicode.Sc, r):
		default:
			return 0, false
		}
	}
	clean := b.String()
	if strings.HasSuffix(clean, "-") && !strings.HasPrefix(clean, "-") {
		clean = "-" + strings.TrimSuffix(clean, "-")
	}
	if clean == "" || clean == "-" || clean == "+" {
		return 0, false
	}

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Whichever separator comes last is the decimal one.
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(clean, ",") > 1 {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.Replace(clean, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(clean, ".") > 1 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	}

	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// isAmountAffix matches what may surround a number: spaces, currency symbols
// and currency codes such as "EUR".
func isAmountAffix(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) || unicode.IsLetter(r)
}
