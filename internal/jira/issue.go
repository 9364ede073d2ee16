package jira

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/evangoldenberg/trawl/internal/crawler"
	"github.com/evangoldenberg/trawl/internal/model"
)

// Timestamp is Jira's REST timestamp layout.
const Timestamp = "2006-01-02T15:04:05.999-0700"

// displayTime matches the format rendered on issue pages, so REST and
// browser datasets carry comparable date strings.
const displayTime = "02/Jan/06 15:04"

// User is an issue participant.
type User struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// namedValue covers the many Jira field objects that matter only for
// their display name (issuetype, status, priority, versions, ...).
type namedValue struct {
	Name string `json:"name"`
}

// Comment is one issue comment.
type Comment struct {
	Author  User      `json:"author"`
	Body    string    `json:"body"`
	Created time.Time `json:"created"`
}

// UnmarshalJSON parses the comment, tolerating an absent created time.
func (c *Comment) UnmarshalJSON(b []byte) error {
	type alias Comment
	aux := &struct {
		Created string `json:"created"`
		*alias
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, aux); err != nil {
		return err
	}

	var err error
	c.Created, err = parseTime(aux.Created)
	if err != nil {
		return fmt.Errorf("parse comment created time: %w", err)
	}
	return nil
}

// Issue is one Jira issue with the fields the collector extracts.
type Issue struct {
	Key         string
	URL         string
	Type        string
	Status      string
	Priority    string
	Resolution  string
	Affects     []string
	FixVersions []string
	Components  []string
	Labels      []string
	Assignee    User
	Reporter    User
	Created     time.Time
	Updated     time.Time
	Resolved    time.Time
	Description string
	Comments    []Comment
}

// UnmarshalJSON flattens Jira's {key, self, fields: {...}} envelope.
// Every field is optional; a null or missing field leaves the zero value.
func (issue *Issue) UnmarshalJSON(b []byte) error {
	envelope := &struct {
		Key    string          `json:"key"`
		Self   string          `json:"self"`
		Fields json.RawMessage `json:"fields"`
	}{}
	if err := json.Unmarshal(b, envelope); err != nil {
		return err
	}
	issue.Key = envelope.Key
	issue.URL = envelope.Self

	if len(envelope.Fields) == 0 {
		return nil
	}

	fields := &struct {
		IssueType      *namedValue  `json:"issuetype"`
		Status         *namedValue  `json:"status"`
		Priority       *namedValue  `json:"priority"`
		Resolution     *namedValue  `json:"resolution"`
		Versions       []namedValue `json:"versions"`
		FixVersions    []namedValue `json:"fixVersions"`
		Components     []namedValue `json:"components"`
		Labels         []string     `json:"labels"`
		Assignee       *User        `json:"assignee"`
		Reporter       *User        `json:"reporter"`
		Created        string       `json:"created"`
		Updated        string       `json:"updated"`
		ResolutionDate string       `json:"resolutiondate"`
		Description    string       `json:"description"`
		Comment        struct {
			Comments []Comment `json:"comments"`
		} `json:"comment"`
	}{}
	if err := json.Unmarshal(envelope.Fields, fields); err != nil {
		return err
	}

	issue.Type = nameOf(fields.IssueType)
	issue.Status = nameOf(fields.Status)
	issue.Priority = nameOf(fields.Priority)
	issue.Resolution = nameOf(fields.Resolution)
	issue.Affects = namesOf(fields.Versions)
	issue.FixVersions = namesOf(fields.FixVersions)
	issue.Components = namesOf(fields.Components)
	issue.Labels = fields.Labels
	if fields.Assignee != nil {
		issue.Assignee = *fields.Assignee
	}
	if fields.Reporter != nil {
		issue.Reporter = *fields.Reporter
	}
	issue.Description = fields.Description
	issue.Comments = fields.Comment.Comments

	var err error
	if issue.Created, err = parseTime(fields.Created); err != nil {
		return fmt.Errorf("parse created time: %w", err)
	}
	if issue.Updated, err = parseTime(fields.Updated); err != nil {
		return fmt.Errorf("parse updated time: %w", err)
	}
	if issue.Resolved, err = parseTime(fields.ResolutionDate); err != nil {
		return fmt.Errorf("parse resolution time: %w", err)
	}
	return nil
}

// parseTime parses a Jira timestamp, mapping absent to the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(Timestamp, s)
}

func nameOf(v *namedValue) string {
	if v == nil {
		return ""
	}
	return v.Name
}

func namesOf(vs []namedValue) []string {
	if len(vs) == 0 {
		return nil
	}
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		if v.Name != "" {
			names = append(names, v.Name)
		}
	}
	return names
}

// ToRecord flattens the issue into a detail record with the same field
// names the browser crawl produces. Absent fields stay absent.
func (issue *Issue) ToRecord() *model.Record {
	rec := model.NewRecord(issue.Key)
	rec.SetNonEmpty(model.FieldURL, issue.URL)
	rec.SetNonEmpty(model.FieldType, issue.Type)
	rec.SetNonEmpty(model.FieldStatus, issue.Status)
	rec.SetNonEmpty(model.FieldPriority, issue.Priority)
	rec.SetNonEmpty(model.FieldResolution, issue.Resolution)
	rec.SetNonEmpty(model.FieldAffects, strings.Join(issue.Affects, ", "))
	rec.SetNonEmpty(model.FieldFixVersions, strings.Join(issue.FixVersions, ", "))
	rec.SetNonEmpty(model.FieldComponents, strings.Join(issue.Components, ", "))
	rec.SetNonEmpty(model.FieldLabels, strings.Join(issue.Labels, ", "))
	rec.SetNonEmpty(model.FieldAssignee, displayName(issue.Assignee))
	rec.SetNonEmpty(model.FieldReporter, displayName(issue.Reporter))
	rec.SetNonEmpty(model.FieldCreated, formatTime(issue.Created))
	rec.SetNonEmpty(model.FieldUpdated, formatTime(issue.Updated))
	rec.SetNonEmpty(model.FieldResolved, formatTime(issue.Resolved))
	if issue.Description != "" {
		rec.Set(model.FieldDescription, crawler.NormalizeSpace(issue.Description))
	}
	rec.Set(model.FieldComments, crawler.FlattenComments(flatComments(issue.Comments)))
	return rec
}

// flatComments converts REST comments to the shared (author, text) form.
func flatComments(comments []Comment) []crawler.Comment {
	out := make([]crawler.Comment, 0, len(comments))
	for _, c := range comments {
		author := displayName(c.Author)
		if author == "" {
			author = crawler.UnknownAuthor
		}
		out = append(out, crawler.Comment{
			Author: author,
			Text:   crawler.NormalizeSpace(c.Body),
		})
	}
	return out
}

// displayName prefers the display name and falls back to the login.
func displayName(u User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// formatTime renders a timestamp in the page display format; the zero
// time renders as empty so the field stays absent.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayTime)
}
