package domain

import "strings"

// Canonical field names shared by the extraction prompt, the normalizer and
// every tabular output.
const (
	FieldProviderTaxID     = "provider_tax_id"
	FieldProviderName      = "provider_name"
	FieldClientTaxID       = "client_tax_id"
	FieldClientName        = "client_name"
	FieldInvoiceNumber     = "invoice_number"
	FieldInvoiceDate       = "invoice_date"
	FieldTaxableBase       = "taxable_base"
	FieldVATAmount         = "vat_amount"
	FieldWithholdingAmount = "withholding_amount"
	FieldTotalAmount       = "total_amount"
	FieldIBAN              = "iban"
	FieldPaymentMethod     = "payment_method"

	// FieldSourceFilename is attached by the orchestrator, never by the extractor.
	FieldSourceFilename = "source_filename"
)

// CanonicalFields lists the 12 invoice attributes in output order.
var CanonicalFields = []string{
	FieldProviderTaxID,
	FieldProviderName,
	FieldClientTaxID,
	FieldClientName,
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldTaxableBase,
	FieldVATAmount,
	FieldWithholdingAmount,
	FieldTotalAmount,
	FieldIBAN,
	FieldPaymentMethod,
}

// OutputColumns is the header of every persisted view: source_filename first.
var OutputColumns = append([]string{FieldSourceFilename}, CanonicalFields...)

// AmountFields are the canonical fields carrying monetary values.
var AmountFields = map[string]bool{
	FieldTaxableBase:       true,
	FieldVATAmount:         true,
	FieldWithholdingAmount: true,
	FieldTotalAmount:       true,
}

// InvoiceRecord is the canonical shape of one extracted invoice. A nil pointer
// means the value is explicitly null.
type InvoiceRecord struct {
	ProviderTaxID     *string  `json:"provider_tax_id" db:"provider_tax_id"`
	ProviderName      *string  `json:"provider_name" db:"provider_name"`
	ClientTaxID       *string  `json:"client_tax_id" db:"client_tax_id"`
	ClientName        *string  `json:"client_name" db:"client_name"`
	InvoiceNumber     *string  `json:"invoice_number" db:"invoice_number"`
	InvoiceDate       *string  `json:"invoice_date" db:"invoice_date"` // YYYY-MM-DD
	TaxableBase       *float64 `json:"taxable_base" db:"taxable_base"`
	VATAmount         *float64 `json:"vat_amount" db:"vat_amount"`
	WithholdingAmount *float64 `json:"withholding_amount" db:"withholding_amount"`
	TotalAmount       *float64 `json:"total_amount" db:"total_amount"`
	IBAN              *string  `json:"iban" db:"iban"`
	PaymentMethod     *string  `json:"payment_method" db:"payment_method"`
	SourceFilename    string   `json:"source_filename" db:"source_filename"`
}

// CompanyRole names which side of an invoice a company appears on.
type CompanyRole string

const (
	RoleProvider CompanyRole = "provider"
	RoleClient   CompanyRole = "client"
)

// CompanyRef is a derived view of one party of an invoice. It is only used
// for cross-record consistency checks and is never persisted.
type CompanyRef struct {
	Role  CompanyRole
	Name  string
	TaxID string
}

// Complete reports whether both name and tax id are present.
func (c CompanyRef) Complete() bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.TaxID) != ""
}

// Provider returns the supplier side of the invoice.
func (r *InvoiceRecord) Provider() CompanyRef {
	return CompanyRef{Role: RoleProvider, Name: Deref(r.ProviderName), TaxID: Deref(r.ProviderTaxID)}
}

// Client returns the customer side of the invoice.
func (r *InvoiceRecord) Client() CompanyRef {
	return CompanyRef{Role: RoleClient, Name: Deref(r.ClientName), TaxID: Deref(r.ClientTaxID)}
}

// Companies returns provider then client.
func (r *InvoiceRecord) Companies() []CompanyRef {
	return []CompanyRef{r.Provider(), r.Client()}
}

// WithSource returns a copy of the record tagged with the document it came from.
func (r InvoiceRecord) WithSource(filename string) InvoiceRecord {
	r.SourceFilename = filename
	return r
}

// Field returns the value of a canonical field or source_filename. Null
// values come back as a nil interface; unknown names return ok=false.
func (r *InvoiceRecord) Field(name string) (any, bool) {
	if name == FieldSourceFilename {
		return r.SourceFilename, true
	}
	if p, ok := r.stringField(name); ok {
		if *p == nil {
			return nil, true
		}
		return **p, true
	}
	if p, ok := r.amountField(name); ok {
		if *p == nil {
			return nil, true
		}
		return **p, true
	}
	return nil, false
}

// Fields returns every canonical field plus source_filename. Null values are
// present as nil so consumers never deal with missing keys.
func (r *InvoiceRecord) Fields() map[string]any {
	m := make(map[string]any, len(OutputColumns))
	for _, name := range OutputColumns {
		v, _ := r.Field(name)
		m[name] = v
	}
	return m
}

// SetString assigns a string field by canonical name.
func (r *InvoiceRecord) SetString(name string, v *string) bool {
	p, ok := r.stringField(name)
	if !ok {
		return false
	}
	*p = v
	return true
}

// SetAmount assigns an amount field by canonical name.
func (r *InvoiceRecord) SetAmount(name string, v *float64) bool {
	p, ok := r.amountField(name)
	if !ok {
		return false
	}
	*p = v
	return true
}

func (r *InvoiceRecord) stringField(name string) (**string, bool) {
	switch name {
	case FieldProviderTaxID:
		return &r.ProviderTaxID, true
	case FieldProviderName:
		return &r.ProviderName, true
	case FieldClientTaxID:
		return &r.ClientTaxID, true
	case FieldClientName:
		return &r.ClientName, true
	case FieldInvoiceNumber:
		return &r.InvoiceNumber, true
	case FieldInvoiceDate:
		return &r.InvoiceDate, true
	case FieldIBAN:
		return &r.IBAN, true
	case FieldPaymentMethod:
		return &r.PaymentMethod, true
	}
	return nil, false
}

func (r *InvoiceRecord) amountField(name string) (**float64, bool) {
	switch name {
	case FieldTaxableBase:
		return &r.TaxableBase, true
	case FieldVATAmount:
		return &r.VATAmount, true
	case FieldWithholdingAmount:
		return &r.WithholdingAmount, true
	case FieldTotalAmount:
		return &r.TotalAmount, true
	}
	return nil, false
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
