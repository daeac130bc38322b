package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/twiindan/facturai/internal/domain"
)

const recordSchemaURL = "invoice_record.json"

// RequiredFieldsValidator checks a record against the invoice JSON schema:
// mandatory text fields must be non-empty strings, mandatory amounts must be
// numbers, optional fields may be null.
type RequiredFieldsValidator struct {
	schema *jsonschema.Schema
}

// NewRequiredFieldsValidator compiles the record schema.
func NewRequiredFieldsValidator() (*RequiredFieldsValidator, error) {
	b, err := json.Marshal(RecordSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recordSchemaURL, strings.NewReader(string(b))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(recordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &RequiredFieldsValidator{schema: schema}, nil
}

// RecordSchema returns the JSON schema of a normalized invoice record.
func RecordSchema() map[string]any {
	requiredText := map[string]any{"type": "string", "minLength": 1}
	requiredAmount := map[string]any{"type": "number"}
	optionalText := map[string]any{"type": []string{"string", "null"}}
	optionalAmount := map[string]any{"type": []string{"number", "null"}}

	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			domain.FieldProviderTaxID:     requiredText,
			domain.FieldProviderName:      requiredText,
			domain.FieldClientTaxID:       requiredText,
			domain.FieldClientName:        requiredText,
			domain.FieldInvoiceNumber:     requiredText,
			domain.FieldInvoiceDate:       requiredText,
			domain.FieldTaxableBase:       requiredAmount,
			domain.FieldVATAmount:         requiredAmount,
			domain.FieldWithholdingAmount: optionalAmount,
			domain.FieldTotalAmount:       requiredAmount,
			domain.FieldIBAN:              optionalText,
			domain.FieldPaymentMethod:     optionalText,
		},
		"required": domain.CanonicalFields,
	}
}

func (v *RequiredFieldsValidator) RuleKey() string  { return domain.RuleRequiredFields }
func (v *RequiredFieldsValidator) RuleName() string { return "Required: Invoice Fields" }

// Validate reports one finding per failing field, sorted by field name.
func (v *RequiredFieldsValidator) Validate(_ context.Context, rec *domain.InvoiceRecord) []domain.ValidationError {
	b, err := json.Marshal(rec.Fields())
	if err != nil {
		return []domain.ValidationError{v.finding(rec, "", fmt.Sprintf("record could not be encoded: %v", err))}
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return []domain.ValidationError{v.finding(rec, "", fmt.Sprintf("record could not be decoded: %v", err))}
	}

	err = v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []domain.ValidationError{v.finding(rec, "", err.Error())}
	}

	byField := make(map[string]string)
	for _, leaf := range leafCauses(ve) {
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		if _, dup := byField[field]; !dup {
			byField[field] = leaf.Message
		}
	}
	fields := make([]string, 0, len(byField))
	for f := range byField {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]domain.ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, v.finding(rec, f, fmt.Sprintf("field '%s' is invalid: %s", f, byField[f])))
	}
	return out
}

func (v *RequiredFieldsValidator) finding(rec *domain.InvoiceRecord, field, msg string) domain.ValidationError {
	return domain.ValidationError{
		RuleKey:        domain.RuleRequiredFields,
		Field:          field,
		SourceFilename: rec.SourceFilename,
		Message:        msg,
	}
}

func leafCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}
