package crawler

import "regexp"

var spaceRuns = regexp.MustCompile(`\s+`)

// NormalizeSpace collapses every run of whitespace to a single space and
// trims leading and trailing whitespace. The operation is idempotent:
// normalizing already-normalized text returns it unchanged.
func NormalizeSpace(s string) string {
	normalized := spaceRuns.ReplaceAllString(s, " ")
	if normalized == " " {
		return ""
	}
	if len(normalized) > 0 && normalized[0] == ' ' {
		normalized = normalized[1:]
	}
	if len(normalized) > 0 && normalized[len(normalized)-1] == ' ' {
		normalized = normalized[:len(normalized)-1]
	}
	return normalized
}
