package export

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/evangoldenberg/trawl/internal/model"
)

// CSVWriter outputs datasets as CSV.
//
// The header row is the reference column followed by the union of all
// record fields in canonical order (unknown fields sorted last), so
// every record fits the same row shape. A record missing a field gets
// an empty cell.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the dataset as CSV.
func (w *CSVWriter) Write(ds *model.Dataset) (int, error) {
	columns := ds.Columns()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := append([]string{RefColumn}, columns...)
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	row := make([]string, len(header))
	for _, rec := range ds.Records {
		row[0] = rec.Ref
		for i, col := range columns {
			row[i+1] = rec.Get(col)
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
