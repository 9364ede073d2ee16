package export

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/evangoldenberg/trawl/internal/model"
)

// cellLimit truncates long field values (descriptions, flattened
// comments) so the record table stays readable.
const cellLimit = 80

// MarkdownWriter outputs datasets as a Markdown summary for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the dataset as Markdown: a run summary table followed
// by one row per record over the dataset's column union.
func (w *MarkdownWriter) Write(ds *model.Dataset) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Collection Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + ds.Source + "`"},
			{"Started", ds.Started.Format("2006-01-02 15:04:05 MST")},
			{"Records", strconv.Itoa(ds.Len())},
			{"Skipped", strconv.Itoa(ds.Skipped)},
		},
	})
	md.PlainText("")

	if ds.Len() > 0 {
		w.writeRecords(md, ds)
	}

	return len(md.String()), md.Build()
}

// writeRecords writes the per-record table.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, ds *model.Dataset) {
	columns := ds.Columns()

	md.H2("Records")
	md.PlainText("")

	rows := make([][]string, 0, ds.Len())
	for _, rec := range ds.Records {
		row := make([]string, 0, len(columns)+1)
		row = append(row, rec.Ref)
		for _, col := range columns {
			row = append(row, truncate(rec.Get(col)))
		}
		rows = append(rows, row)
	}
	md.Table(markdown.TableSet{
		Header: append([]string{RefColumn}, columns...),
		Rows:   rows,
	})
	md.PlainText("")
}

// truncate shortens a cell value to cellLimit runes.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= cellLimit {
		return s
	}
	return string(runes[:cellLimit-1]) + "…"
}
