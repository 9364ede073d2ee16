package crawler

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/evangoldenberg/trawl/internal/model"
)

// Selectors for the rendered issue pages. Jira renders every field into
// an element with a stable id, so extraction is id lookup plus text
// collection. Each field is independently optional.
var detailFields = []struct {
	field string
	id    string
}{
	{model.FieldType, "type-val"},
	{model.FieldStatus, "status-val"},
	{model.FieldPriority, "priority-val"},
	{model.FieldResolution, "resolution-val"},
	{model.FieldAffects, "versions-val"},
	{model.FieldFixVersions, "fixfor-val"},
	{model.FieldComponents, "components-val"},
	{model.FieldLabels, "labels-13028113-value"},
	{model.FieldPatchInfo, "customfield_12310041-val"},
	{model.FieldComplexity, "customfield_12310060-val"},
}

// Date fields carry their value in a nested <time> element.
var dateFields = []struct {
	field string
	id    string
}{
	{model.FieldCreated, "created-val"},
	{model.FieldUpdated, "updated-val"},
	{model.FieldResolved, "resolutiondate-val"},
}

// CommentSeparator joins flattened comment segments in the Comments field.
const CommentSeparator = " | "

// UnknownAuthor is recorded when a comment has no user anchor.
const UnknownAuthor = "Unknown"

// Comment is one (author, text) pair extracted from an issue page.
type Comment struct {
	Author string
	Text   string
}

// IndexLinks extracts the issue links present on an index page, resolved
// against the page base, in document order. Duplicate links within the
// page are kept; the enumeration loop deduplicates across pages.
func IndexLinks(doc *Document) []string {
	list := doc.Find(ByTagClass("ol", "issue-list"))
	if list == nil {
		return nil
	}

	var links []string
	for _, li := range FindAllUnder(list, ByTag("li")) {
		anchor := FindUnder(li, ByTagClass("a", "splitview-issue-link"))
		if anchor == nil {
			continue
		}
		if resolved := doc.Resolve(getAttr(anchor, "href")); resolved != "" {
			links = append(links, resolved)
		}
	}
	return links
}

// ExtractRecord builds one flat detail record from a rendered issue page.
// A missing element leaves its field absent; extraction never fails.
func ExtractRecord(ref string, doc *Document) *model.Record {
	rec := model.NewRecord(ref)
	rec.Set(model.FieldURL, ref)

	for _, f := range detailFields {
		if n := doc.Find(ByID(f.id)); n != nil {
			rec.SetNonEmpty(f.field, Text(n))
		}
	}

	extractPeople(doc, rec)
	extractDates(doc, rec)

	if n := doc.Find(ByID("description-val")); n != nil {
		rec.Set(model.FieldDescription, Text(n))
	}

	rec.Set(model.FieldComments, FlattenComments(ExtractComments(doc)))
	return rec
}

// extractPeople pulls assignee and reporter out of the people section.
// Both spans live inside the people-details block; looking them up under
// that block avoids picking up same-id elements from inline edit forms.
func extractPeople(doc *Document, rec *model.Record) {
	section := doc.Find(func(n *html.Node) bool {
		return n.Data == "div" && hasClass(n, "item-details") && hasClass(n, "people-details")
	})
	if section == nil {
		return
	}

	if n := FindUnder(section, func(n *html.Node) bool {
		return n.Data == "span" && getAttr(n, "id") == "assignee-val"
	}); n != nil {
		rec.SetNonEmpty(model.FieldAssignee, Text(n))
	}
	if n := FindUnder(section, func(n *html.Node) bool {
		return n.Data == "span" && getAttr(n, "id") == "reporter-val"
	}); n != nil {
		rec.SetNonEmpty(model.FieldReporter, Text(n))
	}
}

// extractDates pulls the created/updated/resolved timestamps. The span
// itself holds a tooltip; the displayed value is in the nested <time>.
func extractDates(doc *Document, rec *model.Record) {
	for _, f := range dateFields {
		span := doc.Find(ByID(f.id))
		if span == nil {
			continue
		}
		if t := FindUnder(span, ByTag("time")); t != nil {
			rec.SetNonEmpty(f.field, Text(t))
		}
	}
}

// byCommentID matches the numbered comment wrappers (id="comment-12345").
// The activity container holds other divs whose ids share the prefix,
// such as the add-comment form, so the prefix alone is not enough: a
// digit must follow it.
func byCommentID(n *html.Node) bool {
	if n.Data != "div" {
		return false
	}
	rest, ok := strings.CutPrefix(getAttr(n, "id"), "comment-")
	return ok && rest != "" && rest[0] >= '0' && rest[0] <= '9'
}

// ExtractComments returns the ordered (author, text) pairs from the
// issue activity container. Comments missing their concise or
// action-details wrapper are skipped, matching the rendered structure:
// collapsed comments carry no text worth extracting.
func ExtractComments(doc *Document) []Comment {
	container := doc.Find(ByID("issue_actions_container"))
	if container == nil {
		return nil
	}

	var comments []Comment
	for _, div := range FindAllUnder(container, byCommentID) {
		concise := FindUnder(div, ByTagClass("div", "concise"))
		if concise == nil {
			continue
		}
		details := FindUnder(concise, ByTagClass("div", "action-details"))
		if details == nil {
			continue
		}

		author := UnknownAuthor
		if anchor := FindUnder(details, ByTagClass("a", "user-hover")); anchor != nil {
			author = Text(anchor)
		}

		comments = append(comments, Comment{
			Author: author,
			Text:   Text(details),
		})
	}
	return comments
}

// FlattenComments joins comments into a single "author: text" log,
// segments separated by CommentSeparator. No comments yields "".
func FlattenComments(comments []Comment) string {
	if len(comments) == 0 {
		return ""
	}

	segments := make([]string, 0, len(comments))
	for _, c := range comments {
		segments = append(segments, c.Author+": "+c.Text)
	}
	return strings.Join(segments, CommentSeparator)
}
