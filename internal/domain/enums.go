package domain

// FailureKind classifies why a document produced no records.
type FailureKind string

const (
	FailureProvider          FailureKind = "provider_error"
	FailureTimeout           FailureKind = "timeout"
	FailureEmptyResponse     FailureKind = "empty_response"
	FailureMalformedEnvelope FailureKind = "malformed_envelope"
	FailureParse             FailureKind = "parse_error"
	FailureEmptyDocument     FailureKind = "empty_document"
	FailureUnconfigured      FailureKind = "unconfigured"
	FailureUnknown           FailureKind = "unknown"
)

// InputMode selects what the extraction client receives for each document.
type InputMode string

const (
	// InputModeText sends page text extracted locally.
	InputModeText InputMode = "text"
	// InputModeDocument sends the raw PDF bytes as a native attachment.
	InputModeDocument InputMode = "document"
)

// ContentTypePDF is the only document content type the pipeline reads.
const ContentTypePDF = "application/pdf"

// Validation rule keys.
const (
	RuleCIFConsistency = "consistency.company.tax_id"
	RuleRequiredFields = "required.invoice.fields"
)
