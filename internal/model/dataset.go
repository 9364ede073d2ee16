package model

import "time"

// Dataset is the ordered sequence of detail records produced by one run.
// Records appear in the order their references were discovered during
// index enumeration. The dataset is written once at the end of a run;
// there are no update or merge semantics between runs.
type Dataset struct {
	// Source describes where the records came from (the index URL for
	// browser crawls, the JQL query for REST fetches).
	Source string `json:"source"`

	// Started is when the run began.
	Started time.Time `json:"started"`

	// Records holds one record per item reference, in discovery order.
	Records []*Record `json:"records"`

	// Skipped counts references that failed with a transport error and
	// were dropped from the dataset. Missing fields never count here.
	Skipped int `json:"skipped,omitempty"`
}

// NewDataset creates an empty dataset for the given source.
func NewDataset(source string) *Dataset {
	return &Dataset{
		Source:  source,
		Started: time.Now(),
		Records: make([]*Record, 0),
	}
}

// Append adds a record to the dataset, preserving insertion order.
func (d *Dataset) Append(rec *Record) {
	d.Records = append(d.Records, rec)
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Columns returns the exported column set for this dataset.
func (d *Dataset) Columns() []string {
	return Columns(d.Records)
}
