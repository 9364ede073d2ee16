package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Document wraps a parsed HTML page with typed lookup accessors.
//
// Design decision: We expose explicit predicate-based accessors rather
// than CSS selector strings because the handful of lookups this tool
// needs (element by id, first descendant by tag and class) are clearer
// as typed filters, and a selector engine would be a dependency with one
// call site.
type Document struct {
	root *html.Node

	// base is the URL of the page, used for resolving relative links.
	base *url.URL
}

// Predicate selects HTML element nodes during tree walks.
type Predicate func(*html.Node) bool

// ParseDocument parses HTML content into a Document. The content is
// decoded according to the declared charset; issue trackers of this
// vintage are not reliably UTF-8.
func ParseDocument(baseURL string, r io.Reader) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	decoded, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(decoded)
	if err != nil {
		return nil, err
	}

	return &Document{root: root, base: base}, nil
}

// ByID matches the element carrying the given id attribute.
func ByID(id string) Predicate {
	return func(n *html.Node) bool {
		return getAttr(n, "id") == id
	}
}

// ByTagClass matches elements with the given tag name carrying the given
// class among their class list.
func ByTagClass(tag, class string) Predicate {
	return func(n *html.Node) bool {
		return n.Data == tag && hasClass(n, class)
	}
}

// ByTag matches elements with the given tag name.
func ByTag(tag string) Predicate {
	return func(n *html.Node) bool {
		return n.Data == tag
	}
}

// Find returns the first descendant element (depth-first, document order)
// matching the predicate, or nil.
func (d *Document) Find(pred Predicate) *html.Node {
	return findFrom(d.root, pred)
}

// FindAll returns all descendant elements matching the predicate in
// document order.
func (d *Document) FindAll(pred Predicate) []*html.Node {
	return findAllFrom(d.root, pred)
}

// FindUnder is Find scoped to the subtree rooted at n.
func FindUnder(n *html.Node, pred Predicate) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFrom(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// FindAllUnder is FindAll scoped to the subtree rooted at n.
func FindAllUnder(n *html.Node, pred Predicate) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAllFrom(c, pred)...)
	}
	return out
}

func findFrom(n *html.Node, pred Predicate) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFrom(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func findAllFrom(n *html.Node, pred Predicate) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && pred(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAllFrom(c, pred)...)
	}
	return out
}

// Text returns the concatenated text content of the subtree rooted at n,
// with whitespace runs collapsed and the ends trimmed. A nil node yields
// the empty string, which keeps optional-field extraction branch-free.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(n, &b)
	return NormalizeSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// Resolve resolves a possibly-relative href against the document base.
// Unusable hrefs (javascript:, mailto:, bare fragments) resolve to "".
func (d *Document) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return d.base.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasClass reports whether the node's class attribute contains the given
// class name as a whole token.
func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(getAttr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}
