package port

import "context"

// DocumentRef identifies one input document.
type DocumentRef struct {
	Path string
	Name string // base filename, attached to records as source_filename
}

// DocumentSource discovers documents and reads their content. Read methods
// never fail: unreadable documents yield empty content and a log entry.
type DocumentSource interface {
	List(ctx context.Context, dir string) ([]DocumentRef, error)
	ReadText(ctx context.Context, doc DocumentRef) string
	ReadBytes(ctx context.Context, doc DocumentRef) []byte
}
