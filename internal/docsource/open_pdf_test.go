package docsource

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPDF_ClosesFileWhenReaderPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0o644))

	var opened *os.File
	orig := newPDFReader
	newPDFReader = func(ra io.ReaderAt, _ int64) (*pdf.Reader, error) {
		opened = ra.(*os.File)
		panic("malformed xref")
	}
	t.Cleanup(func() { newPDFReader = orig })

	f, r, err := openPDF(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed xref")
	assert.Nil(t, f)
	assert.Nil(t, r)
	require.NotNil(t, opened)
	assert.True(t, errors.Is(opened.Close(), os.ErrClosed))
}

func TestOpenPDF_ClosesFileOnReaderError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	var opened *os.File
	orig := newPDFReader
	newPDFReader = func(ra io.ReaderAt, _ int64) (*pdf.Reader, error) {
		opened = ra.(*os.File)
		return nil, errors.New("not a PDF")
	}
	t.Cleanup(func() { newPDFReader = orig })

	f, _, err := openPDF(path)

	require.Error(t, err)
	assert.Nil(t, f)
	assert.True(t, errors.Is(opened.Close(), os.ErrClosed))
}

func TestOpenPDF_MissingFile(t *testing.T) {
	f, r, err := openPDF(filepath.Join(t.TempDir(), "missing.pdf"))

	assert.Error(t, err)
	assert.Nil(t, f)
	assert.Nil(t, r)
}
