package port

import "context"

// ExtractInput carries one document to the extraction client. Exactly one of
// Text (text mode) or Document (native attachment mode) is set.
type ExtractInput struct {
	SourceFilename string
	Text           string
	Document       []byte
	ContentType    string
}

// TextMode reports whether the input carries pre-extracted text.
func (in ExtractInput) TextMode() bool {
	return len(in.Document) == 0
}

// RawResponse is the provider-independent textual payload of one completion.
// Provider-specific envelopes never leave the extractor packages.
type RawResponse struct {
	Text       string
	Model      string
	PromptUsed string
}

// Extractor abstracts the LLM call that turns a document into response text.
type Extractor interface {
	Extract(ctx context.Context, input ExtractInput) (*RawResponse, error)
}
