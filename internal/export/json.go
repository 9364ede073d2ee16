package export

import (
	"encoding/json"
	"io"

	"github.com/evangoldenberg/trawl/internal/model"
)

// JSONWriter outputs datasets and metric runs as JSON.
//
// Standard encoding/json is sufficient here: output is written once
// per run and read by tools, so neither streaming nor a faster codec
// buys anything.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool

	// indentString is the per-level indentation (typically four
	// spaces, matching the snapshot files earlier runs produced).
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed output with the given indentation.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed output with four-space
// indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentString = "    "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the dataset as JSON.
func (w *JSONWriter) Write(ds *model.Dataset) (int, error) {
	return w.writeJSON(ds)
}

// WriteMetrics outputs a metric run as a JSON array of per-repository
// objects.
func (w *JSONWriter) WriteMetrics(results []*model.RepoMetrics) (int, error) {
	return w.writeJSON(results)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, "", w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
