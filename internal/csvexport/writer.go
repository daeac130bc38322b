package csvexport

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/twiindan/facturai/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer wraps csv.Writer for exporting invoice records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row: source_filename then the canonical fields.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(domain.OutputColumns)
}

// WriteRecords converts records to CSV rows and writes them.
func (w *Writer) WriteRecords(records []domain.InvoiceRecord) error {
	for i := range records {
		if err := w.csv.Write(RecordToRow(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// Render returns the complete CSV document for records, header included.
func Render(records []domain.InvoiceRecord, bom bool) ([]byte, error) {
	var buf bytes.Buffer
	if bom {
		buf.Write(BOM)
	}
	w := NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return nil, err
	}
	if err := w.WriteRecords(records); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RecordToRow renders one record in OutputColumns order. Null values become
// empty cells; amounts use two decimals.
func RecordToRow(rec *domain.InvoiceRecord) []string {
	row := make([]string, len(domain.OutputColumns))
	for i, name := range domain.OutputColumns {
		v, _ := rec.Field(name)
		row[i] = FormatValue(v)
	}
	return row
}

// FormatValue renders a field value as a cell.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatMoney(t)
	default:
		return ""
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
