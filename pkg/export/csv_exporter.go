// Package export renders tabular data and registration slips as CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// Dataset is a titled table. Every row should have len(Headers) cells;
// short rows are padded and long rows truncated.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func (d Dataset) row(i int) []string {
	out := make([]string, len(d.Headers))
	copy(out, d.Rows[i])
	return out
}

var errNoHeaders = errors.New("dataset has no headers")

// utf8BOM lets spreadsheet tools detect UTF-8 in names with diacritics.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOption configures a CSVExporter.
type CSVOption func(*CSVExporter)

// WithByteOrderMark prefixes the output with a UTF-8 byte order mark.
func WithByteOrderMark() CSVOption {
	return func(e *CSVExporter) { e.bom = true }
}

// WithCRLF terminates records with \r\n.
func WithCRLF() CSVOption {
	return func(e *CSVExporter) { e.crlf = true }
}

// CSVExporter renders datasets as CSV. Cells that a spreadsheet would
// evaluate as a formula are prefixed with a single quote.
type CSVExporter struct {
	bom  bool
	crlf bool
}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render produces the header record followed by one record per row.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errNoHeaders
	}
	var buf bytes.Buffer
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	w.UseCRLF = e.crlf

	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i := range data.Rows {
		record := data.row(i)
		for j, cell := range record {
			record[j] = neutralize(cell)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralize(cell string) string {
	if cell == "" || !strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return cell
	}
	return "'" + cell
}
