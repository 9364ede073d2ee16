package export

import (
	"fmt"
	"io"
	"time"

	"github.com/evangoldenberg/trawl/internal/model"
)

// RefColumn is the header of the leading column holding each record's
// reference (the detail URL for browser crawls, the issue key for REST
// fetches).
const RefColumn = "Ref"

// Writer outputs a dataset to a configured destination.
//
// Implementations exist for CSV, JSON, and Markdown. The interface
// lets callers pick the format at runtime and write to files, stdout,
// or buffers with the same API.
type Writer interface {
	// Write outputs the dataset. It returns the number of bytes
	// written and any error encountered.
	Write(ds *model.Dataset) (int, error)
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// DatedFilename builds a date-stamped output filename in the form
// prefix_YYYY_MM_DD.ext, matching the naming of metric snapshots so
// successive runs sort chronologically.
func DatedFilename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("2006_01_02"), ext)
}
