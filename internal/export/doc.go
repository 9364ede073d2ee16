// Package export writes collected datasets and repository metrics to
// their output formats.
//
// Three formats are supported: CSV (one row per record, columns are
// the union of all record fields), JSON (the full dataset, optionally
// pretty-printed), and Markdown (a summary suitable for sharing).
// Metric runs are written as a JSON array of per-repository objects
// with a date-stamped filename.
//
// Output is written once per run and overwrites any existing file;
// there are no update or merge semantics.
package export
