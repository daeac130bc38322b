package extractor

import (
	"strings"

	"github.com/twiindan/facturai/internal/domain"
)

// BuildInvoicePrompt returns the extraction prompt for invoice documents.
// In text mode the document text is appended after the instructions; in
// document mode the PDF travels as a separate attachment.
func BuildInvoicePrompt(documentText string) string {
	var b strings.Builder
	b.WriteString(`You are a document data extraction assistant. Analyze the provided invoice document and extract the data of EVERY invoice it contains.

IMPORTANT INSTRUCTIONS:
- Return a JSON array with one object per invoice, even when the document contains a single invoice.
- Each object must have exactly these keys:
`)
	for _, f := range domain.CanonicalFields {
		b.WriteString("  - ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString(`- provider_* is the company issuing the invoice, client_* is the company receiving it. *_tax_id is the CIF/NIF.
- Dates must use YYYY-MM-DD format.
- taxable_base, vat_amount, withholding_amount and total_amount are numbers with a dot as decimal separator and no currency symbol.
- If a value is not present in the document, use null. Do not invent values and do not use 0 for a missing withholding.

Return ONLY valid JSON with no explanation.`)
	if documentText != "" {
		b.WriteString("\n\nDocument text:\n")
		b.WriteString(documentText)
	}
	return b.String()
}
