package model

// Metric is a single named repository count, such as ("commits", 1874).
// Metrics are kept as ordered pairs rather than a map so the output
// preserves the order the endpoints were queried in.
type Metric struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Language is a language used in a repository with its byte count.
type Language struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
}

// RepoMetrics aggregates the collected metrics for one repository.
type RepoMetrics struct {
	// Repository is the repository name without the owner prefix.
	Repository string `json:"repository"`

	// Metrics holds the endpoint counts in query order, followed by
	// stars, forks, environments, and closed issues.
	Metrics []Metric `json:"metrics"`

	// Languages holds per-language byte counts.
	Languages []Language `json:"languages"`

	// Err records a collection failure for this repository, if any.
	// A failed repository still appears in the output with its error
	// so partial runs remain inspectable.
	Err string `json:"error,omitempty"`
}

// AddMetric appends a named count, preserving insertion order.
func (m *RepoMetrics) AddMetric(name string, count int) {
	m.Metrics = append(m.Metrics, Metric{Name: name, Count: count})
}

// MetricCount returns the count for a named metric, or zero when absent.
func (m *RepoMetrics) MetricCount(name string) int {
	for _, metric := range m.Metrics {
		if metric.Name == name {
			return metric.Count
		}
	}
	return 0
}
