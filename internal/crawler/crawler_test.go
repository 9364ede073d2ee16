package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evangoldenberg/trawl/internal/config"
	"github.com/evangoldenberg/trawl/internal/model"
)

func configSite(cookie string, headers map[string]string) config.SiteConfig {
	return config.SiteConfig{Cookie: cookie, Headers: headers}
}

// fakePager serves a fixed sequence of index pages.
type fakePager struct {
	pages []string
	pos   int

	openErr   error
	clickErrs map[int]error // page index -> error returned before advancing
	clicks    int
}

func (p *fakePager) Open(_ context.Context, _ string) error {
	return p.openErr
}

func (p *fakePager) HTML(_ context.Context) (string, error) {
	return p.pages[p.pos], nil
}

func (p *fakePager) NextPage(_ context.Context) error {
	p.clicks++
	if err, ok := p.clickErrs[p.pos]; ok {
		delete(p.clickErrs, p.pos)
		return err
	}
	if p.pos+1 >= len(p.pages) {
		return ErrNoNextControl
	}
	p.pos++
	return nil
}

// fakeFetcher serves detail pages from a map; absent refs fail.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	source, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("non-success status: 404 Not Found")
	}
	return source, nil
}

func indexPage(refs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ol class="issue-list">`)
	for _, ref := range refs {
		b.WriteString(`<li><a class="splitview-issue-link" href="` + ref + `"></a></li>`)
	}
	b.WriteString(`</ol></body></html>`)
	return b.String()
}

func detailPage(issueType string) string {
	return `<html><body><span id="type-val">` + issueType + `</span></body></html>`
}

// TestEnumerateIndex tests paginated index enumeration.
func TestEnumerateIndex(t *testing.T) {
	t.Parallel()

	t.Run("three pages of two items yield six references in page order", func(t *testing.T) {
		t.Parallel()

		pager := &fakePager{pages: []string{
			indexPage("/browse/A-1", "/browse/A-2"),
			indexPage("/browse/A-3", "/browse/A-4"),
			indexPage("/browse/A-5", "/browse/A-6"),
		}}

		c := New(pager, &fakeFetcher{})
		refs, err := c.EnumerateIndex(context.Background(), "https://issues.example.org/projects/A/issues")
		if err != nil {
			t.Fatalf("enumeration failed: %v", err)
		}

		if len(refs) != 6 {
			t.Fatalf("expected 6 references, got %d: %v", len(refs), refs)
		}
		for i, ref := range refs {
			want := fmt.Sprintf("https://issues.example.org/browse/A-%d", i+1)
			if ref != want {
				t.Errorf("reference %d: expected %q, got %q", i, want, ref)
			}
		}
	})

	t.Run("duplicates across pages appear once, first-seen order", func(t *testing.T) {
		t.Parallel()

		pager := &fakePager{pages: []string{
			indexPage("/browse/A-1", "/browse/A-2"),
			indexPage("/browse/A-2", "/browse/A-3"),
		}}

		c := New(pager, &fakeFetcher{})
		refs, err := c.EnumerateIndex(context.Background(), "https://issues.example.org/i")
		if err != nil {
			t.Fatalf("enumeration failed: %v", err)
		}
		if len(refs) != 3 {
			t.Fatalf("expected 3 distinct references, got %d: %v", len(refs), refs)
		}
		if !strings.HasSuffix(refs[1], "A-2") {
			t.Errorf("expected A-2 to keep its first-seen position, got %v", refs)
		}
	})

	t.Run("absent next control on first page is normal termination", func(t *testing.T) {
		t.Parallel()

		pager := &fakePager{pages: []string{indexPage("/browse/A-1", "/browse/A-2")}}

		c := New(pager, &fakeFetcher{})
		refs, err := c.EnumerateIndex(context.Background(), "https://issues.example.org/i")
		if err != nil {
			t.Fatalf("expected normal termination, got %v", err)
		}
		if len(refs) != 2 {
			t.Errorf("expected 2 references, got %d", len(refs))
		}
	})

	t.Run("transient click failure is retried, then advances", func(t *testing.T) {
		t.Parallel()

		pager := &fakePager{
			pages:     []string{indexPage("/browse/A-1"), indexPage("/browse/A-2")},
			clickErrs: map[int]error{0: errors.New("element detached")},
		}

		c := New(pager, &fakeFetcher{}, WithNextRetries(2))
		refs, err := c.EnumerateIndex(context.Background(), "https://issues.example.org/i")
		if err != nil {
			t.Fatalf("enumeration failed: %v", err)
		}
		if len(refs) != 2 {
			t.Errorf("expected retry to reach page 2, got %d references", len(refs))
		}
	})

	t.Run("exhausted retry budget ends enumeration without error", func(t *testing.T) {
		t.Parallel()

		pager := &stubbornPager{page: indexPage("/browse/A-1")}

		c := New(pager, &fakeFetcher{}, WithNextRetries(1))
		refs, err := c.EnumerateIndex(context.Background(), "https://issues.example.org/i")
		if err != nil {
			t.Fatalf("expected graceful stop, got %v", err)
		}
		if len(refs) != 1 {
			t.Errorf("expected the first page's references, got %d", len(refs))
		}
		if pager.clicks != 2 {
			t.Errorf("expected 1 attempt + 1 retry, got %d clicks", pager.clicks)
		}
	})

	t.Run("unreachable index is fatal", func(t *testing.T) {
		t.Parallel()

		pager := &fakePager{openErr: errors.New("connection refused")}
		c := New(pager, &fakeFetcher{})
		if _, err := c.EnumerateIndex(context.Background(), "https://down.example.org"); err == nil {
			t.Fatal("expected error for unreachable index")
		}
	})

	t.Run("page cap bounds enumeration", func(t *testing.T) {
		t.Parallel()

		pager := &endlessPager{page: indexPage("/browse/A-1")}
		c := New(pager, &fakeFetcher{}, WithMaxPages(5))
		if _, err := c.EnumerateIndex(context.Background(), "https://issues.example.org/i"); err != nil {
			t.Fatalf("enumeration failed: %v", err)
		}
		if pager.clicks > 5 {
			t.Errorf("expected at most 5 pages, got %d clicks", pager.clicks)
		}
	})
}

// stubbornPager always fails to click a present next control.
type stubbornPager struct {
	page   string
	clicks int
}

func (p *stubbornPager) Open(_ context.Context, _ string) error { return nil }
func (p *stubbornPager) HTML(_ context.Context) (string, error) { return p.page, nil }
func (p *stubbornPager) NextPage(_ context.Context) error {
	p.clicks++
	return errors.New("click intercepted")
}

// endlessPager always reports another page.
type endlessPager struct {
	page   string
	clicks int
}

func (p *endlessPager) Open(_ context.Context, _ string) error { return nil }
func (p *endlessPager) HTML(_ context.Context) (string, error) { return p.page, nil }
func (p *endlessPager) NextPage(_ context.Context) error {
	p.clicks++
	return nil
}

// TestRun tests the full list-then-detail crawl.
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("one record per reference in discovery order", func(t *testing.T) {
		t.Parallel()

		pager := &fakePager{pages: []string{
			indexPage("/browse/A-1", "/browse/A-2"),
			indexPage("/browse/A-3"),
		}}
		fetcher := &fakeFetcher{pages: map[string]string{
			"https://issues.example.org/browse/A-1": detailPage("Bug"),
			"https://issues.example.org/browse/A-2": detailPage("Task"),
			"https://issues.example.org/browse/A-3": detailPage("Improvement"),
		}}

		c := New(pager, fetcher, WithDetailWorkers(2))
		ds, err := c.Run(context.Background(), "https://issues.example.org/i")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if ds.Len() != 3 {
			t.Fatalf("expected 3 records, got %d", ds.Len())
		}
		wantTypes := []string{"Bug", "Task", "Improvement"}
		for i, want := range wantTypes {
			if got := ds.Records[i].Get(model.FieldType); got != want {
				t.Errorf("record %d: expected type %q, got %q", i, want, got)
			}
		}
	})

	t.Run("failing detail page is skipped, run continues", func(t *testing.T) {
		t.Parallel()

		pager := &fakePager{pages: []string{indexPage("/browse/A-1", "/browse/A-2")}}
		fetcher := &fakeFetcher{pages: map[string]string{
			"https://issues.example.org/browse/A-2": detailPage("Bug"),
		}}

		c := New(pager, fetcher)
		ds, err := c.Run(context.Background(), "https://issues.example.org/i")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if ds.Len() != 1 {
			t.Errorf("expected 1 record, got %d", ds.Len())
		}
		if ds.Skipped != 1 {
			t.Errorf("expected 1 skipped reference, got %d", ds.Skipped)
		}
	})
}

// TestHTTPFetcher tests the plain-HTTP detail fetcher.
func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends configured headers", func(t *testing.T) {
		t.Parallel()

		var gotCookie, gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, "<html><body>ok</body></html>")
		}))
		defer srv.Close()

		f := NewHTTPFetcher(srv.Client(),
			WithSiteConfig(configSite("session=abc", map[string]string{"Authorization": "Bearer tok"})),
		)
		body, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if !strings.Contains(body, "ok") {
			t.Errorf("unexpected body: %q", body)
		}
		if gotCookie != "session=abc" {
			t.Errorf("expected cookie header, got %q", gotCookie)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("expected authorization header, got %q", gotAuth)
		}
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewHTTPFetcher(srv.Client())
		if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
			t.Fatal("expected error for 404 response")
		}
	})
}
