package model

import "sort"

// Known field names extracted from issue detail pages.
// These double as the canonical column order for tabular export.
const (
	FieldURL         = "URL"
	FieldType        = "Type"
	FieldStatus      = "Status"
	FieldPriority    = "Priority"
	FieldResolution  = "Resolution"
	FieldAffects     = "Affects Version/s"
	FieldFixVersions = "Fix Version/s"
	FieldComponents  = "Component/s"
	FieldLabels      = "Labels"
	FieldPatchInfo   = "Patch Info"
	FieldComplexity  = "Estimated Complexity"
	FieldAssignee    = "Assignee"
	FieldReporter    = "Reporter"
	FieldCreated     = "Created"
	FieldUpdated     = "Updated"
	FieldResolved    = "Resolved"
	FieldDescription = "Description"
	FieldComments    = "Comments"
)

// CanonicalColumns is the preferred column order for exported datasets.
// Fields not listed here are appended after these, sorted by name.
var CanonicalColumns = []string{
	FieldURL,
	FieldType,
	FieldStatus,
	FieldPriority,
	FieldResolution,
	FieldAffects,
	FieldFixVersions,
	FieldComponents,
	FieldLabels,
	FieldPatchInfo,
	FieldComplexity,
	FieldAssignee,
	FieldReporter,
	FieldCreated,
	FieldUpdated,
	FieldResolved,
	FieldDescription,
	FieldComments,
}

// Record is one flattened detail record: a mapping from field name to
// string value. Missing fields are simply absent from the map; extraction
// never fails because an optional field could not be found.
//
// Design decision: We keep the record as a flat map rather than a struct
// because the set of fields differs between sources (rendered pages expose
// custom fields the REST API does not) and absent-vs-empty must survive
// round trips to CSV and JSON.
type Record struct {
	// Ref uniquely identifies the item this record was extracted from.
	// For browser crawls this is the issue URL; for REST fetches the issue key.
	Ref string `json:"ref"`

	// Fields maps field names to their extracted string values.
	Fields map[string]string `json:"fields"`
}

// NewRecord creates an empty record for the given item reference.
func NewRecord(ref string) *Record {
	return &Record{
		Ref:    ref,
		Fields: make(map[string]string),
	}
}

// Set stores a field value. Empty values are stored as-is; use SetNonEmpty
// when an empty extraction should leave the field absent.
func (r *Record) Set(name, value string) {
	r.Fields[name] = value
}

// SetNonEmpty stores a field value only when it is non-empty.
func (r *Record) SetNonEmpty(name, value string) {
	if value != "" {
		r.Fields[name] = value
	}
}

// Get returns the field value, or the empty string when the field is absent.
func (r *Record) Get(name string) string {
	return r.Fields[name]
}

// Has reports whether the field is present in the record.
func (r *Record) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// Columns returns the union of field names across the given records:
// canonical columns that occur in at least one record first, in canonical
// order, followed by any remaining field names sorted alphabetically.
func Columns(records []*Record) []string {
	present := make(map[string]bool)
	for _, rec := range records {
		for name := range rec.Fields {
			present[name] = true
		}
	}

	columns := make([]string, 0, len(present))
	canonical := make(map[string]bool, len(CanonicalColumns))
	for _, name := range CanonicalColumns {
		canonical[name] = true
		if present[name] {
			columns = append(columns, name)
		}
	}

	extras := make([]string, 0)
	for name := range present {
		if !canonical[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)

	return append(columns, extras...)
}
