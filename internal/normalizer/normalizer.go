// Package normalizer turns the free-form text returned by the extraction
// client into fixed-schema invoice records.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/domain"
)

// fencePattern matches the first fenced block, with or without a language tag.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n(.*?)\r?\n?```")

// headerAliases maps the legacy Spanish column headers onto canonical names.
var headerAliases = map[string]string{
	"CIF/ NIF Proveedor":  domain.FieldProviderTaxID,
	"CIF/NIF Proveedor":   domain.FieldProviderTaxID,
	"Nombre Proveedor":    domain.FieldProviderName,
	"CIF/ NIF Cliente":    domain.FieldClientTaxID,
	"CIF/NIF Cliente":     domain.FieldClientTaxID,
	"Nombre Cliente":      domain.FieldClientName,
	"Numero de Factura":   domain.FieldInvoiceNumber,
	"Número de Factura":   domain.FieldInvoiceNumber,
	"Fecha de la factura": domain.FieldInvoiceDate,
	"Base imponible":      domain.FieldTaxableBase,
	"IVA":                 domain.FieldVATAmount,
	"Retencion IRPF":      domain.FieldWithholdingAmount,
	"Retención IRPF":      domain.FieldWithholdingAmount,
	"TOTAL":               domain.FieldTotalAmount,
	"IBAN":                domain.FieldIBAN,
	"Forma de pago":       domain.FieldPaymentMethod,
}

// Normalizer converts raw response text into records carrying every
// canonical field.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a Normalizer.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// StripCodeFence returns the content of the first fenced code block in raw,
// or the whole trimmed text when there is none.
func StripCodeFence(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// Normalize parses raw and returns one record per invoice object. A single
// object is treated as a one-element list. Records are healed so that every
// canonical field is present; values that cannot be coerced become null.
func (n *Normalizer) Normalize(raw string) ([]domain.InvoiceRecord, error) {
	body := StripCodeFence(raw)
	if body == "" {
		return nil, &ParseError{Raw: raw, Err: errors.New("empty response text")}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Raw: raw, Err: errors.New("trailing data after JSON value")}
	}

	var objects []map[string]any
	switch v := parsed.(type) {
	case map[string]any:
		objects = []map[string]any{v}
	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				n.log.Warn().Int("index", i).Str("type", jsonKind(item)).
					Msg("normalizer.Normalize: dropping non-object array element")
				continue
			}
			objects = append(objects, obj)
		}
	default:
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("expected JSON object or array, got %s", jsonKind(parsed))}
	}

	records := make([]domain.InvoiceRecord, 0, len(objects))
	for _, obj := range objects {
		records = append(records, n.toRecord(renameAliases(obj)))
	}
	return records, nil
}

// renameAliases rewrites legacy header keys without overwriting a canonical
// key already present.
func renameAliases(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if _, isAlias := headerAliases[k]; !isAlias {
			out[k] = v
		}
	}
	for k, v := range obj {
		canonical, isAlias := headerAliases[k]
		if !isAlias {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
	}
	return out
}

// toRecord heals and coerces one object. Absent keys and unknown keys are
// both fine: the record struct has exactly the canonical fields.
func (n *Normalizer) toRecord(obj map[string]any) domain.InvoiceRecord {
	var rec domain.InvoiceRecord
	for _, field := range domain.CanonicalFields {
		v, present := obj[field]
		if !present || v == nil {
			continue
		}
		if domain.AmountFields[field] {
			amount, ok := coerceAmount(v)
			if !ok {
				n.log.Warn().Str("field", field).Interface("value", v).
					Msg("normalizer.Normalize: value is not an amount, using null")
			}
			rec.SetAmount(field, amount)
			continue
		}
		s, ok := coerceString(v)
		if !ok {
			n.log.Warn().Str("field", field).Str("type", jsonKind(v)).
				Msg("normalizer.Normalize: value is not a scalar, using null")
		}
		rec.SetString(field, s)
	}
	return rec
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
