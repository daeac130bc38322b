// Package docsource discovers PDF documents on disk and reads their content.
package docsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/port"
)

// FileSystem implements port.DocumentSource over a local directory.
type FileSystem struct {
	log zerolog.Logger
}

// NewFileSystem creates a filesystem document source.
func NewFileSystem(log zerolog.Logger) *FileSystem {
	return &FileSystem{log: log}
}

// List returns the top-level *.pdf files of dir (extension matched
// case-insensitively), sorted by name.
func (s *FileSystem) List(ctx context.Context, dir string) ([]port.DocumentRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}
	var docs []port.DocumentRef
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		docs = append(docs, port.DocumentRef{Path: filepath.Join(dir, e.Name()), Name: e.Name()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// ReadText concatenates the plain text of every page. Unreadable documents
// and pages are logged and contribute no text.
func (s *FileSystem) ReadText(_ context.Context, doc port.DocumentRef) string {
	f, r, err := openPDF(doc.Path)
	if err != nil {
		s.log.Error().Err(err).Str("file", doc.Name).Msg("docsource.ReadText: cannot open PDF")
		return ""
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		text, err := pageText(r, i)
		if err != nil {
			s.log.Warn().Err(err).Str("file", doc.Name).Int("page", i).Msg("docsource.ReadText: skipping unreadable page")
			continue
		}
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}
	return strings.TrimSpace(b.String())
}

// ReadBytes returns the raw file content, or nil when it cannot be read.
func (s *FileSystem) ReadBytes(_ context.Context, doc port.DocumentRef) []byte {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		s.log.Error().Err(err).Str("file", doc.Name).Msg("docsource.ReadBytes: cannot read file")
		return nil
	}
	return data
}

// newPDFReader is swapped in tests.
var newPDFReader = pdf.NewReader

// openPDF opens path and parses its cross-reference table. The pdf package
// panics on some malformed files; the panic becomes an error. On any error
// the file is already closed.
func openPDF(path string) (*os.File, *pdf.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	r, err := parsePDF(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, r, nil
}

func parsePDF(ra io.ReaderAt, size int64) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parsing PDF: %v", rec)
		}
	}()
	return newPDFReader(ra, size)
}

// pageText extracts one page. The pdf package panics on some malformed
// content streams; the panic is turned into an error.
func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reading page %d: %v", num, rec)
		}
	}()
	p := r.Page(num)
	if p.V.IsNull() {
		return "", nil
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	return p.GetPlainText(fonts)
}
