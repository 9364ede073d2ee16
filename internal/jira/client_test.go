package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/evangoldenberg/trawl/internal/model"
)

// newSearchServer serves a paginated /search response over the given
// keys and a minimal /issue/{key} detail for each.
func newSearchServer(t *testing.T, keys []string, broken map[string]bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
		if r.URL.Query().Get("fields") != "key" {
			t.Errorf("expected fields=key, got %q", r.URL.Query().Get("fields"))
		}

		end := startAt + maxResults
		if end > len(keys) {
			end = len(keys)
		}
		issues := ""
		for i := startAt; i < end; i++ {
			if issues != "" {
				issues += ","
			}
			issues += fmt.Sprintf(`{"key": %q}`, keys[i])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"startAt": %d, "maxResults": %d, "total": %d, "issues": [%s]}`,
			startAt, maxResults, len(keys), issues)
	})
	mux.HandleFunc("/rest/api/2/issue/", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path[len("/rest/api/2/issue/"):]
		if broken[key] {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"key": %q, "fields": {"issuetype": {"name": "Bug"}}}`, key)
	})
	return httptest.NewServer(mux)
}

// TestClientSearchKeys tests pagination over the search endpoint.
func TestClientSearchKeys(t *testing.T) {
	t.Parallel()

	t.Run("walks all pages in order", func(t *testing.T) {
		t.Parallel()

		keys := []string{"T-1", "T-2", "T-3", "T-4", "T-5"}
		srv := newSearchServer(t, keys, nil)
		defer srv.Close()

		client, err := NewClient(srv.URL+"/rest/api/2", WithPageSize(2))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		got, err := client.SearchKeys(context.Background(), "project = T")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(got) != len(keys) {
			t.Fatalf("expected %d keys, got %d", len(keys), len(got))
		}
		for i, key := range keys {
			if got[i] != key {
				t.Errorf("expected %q at %d, got %q", key, i, got[i])
			}
		}
	})

	t.Run("deduplicates repeated keys", func(t *testing.T) {
		t.Parallel()

		srv := newSearchServer(t, []string{"T-1", "T-1", "T-2"}, nil)
		defer srv.Close()

		client, err := NewClient(srv.URL + "/rest/api/2")
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		got, err := client.SearchKeys(context.Background(), "project = T")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(got) != 2 || got[0] != "T-1" || got[1] != "T-2" {
			t.Errorf("expected deduplicated [T-1 T-2], got %v", got)
		}
	})

	t.Run("accepts API root with trailing slash", func(t *testing.T) {
		t.Parallel()

		srv := newSearchServer(t, []string{"T-1"}, nil)
		defer srv.Close()

		client, err := NewClient(srv.URL + "/rest/api/2/")
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if got := client.apiRoot.Path; got != "/rest/api/2" {
			t.Errorf("expected trailing slash trimmed from root path, got %q", got)
		}

		got, err := client.SearchKeys(context.Background(), "project = T")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(got) != 1 || got[0] != "T-1" {
			t.Errorf("expected [T-1], got %v", got)
		}
	})

	t.Run("unreachable server is fatal", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		client, err := NewClient(srv.URL)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if _, err := client.SearchKeys(context.Background(), "project = T"); err == nil {
			t.Error("expected error for unreachable server")
		}
	})
}

// TestClientAuth tests bearer token attachment.
func TestClientAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("expected bearer header, got %q", got)
		}
		fmt.Fprint(w, `{"key": "T-1", "fields": {}}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithToken("sekrit"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := client.Issue(context.Background(), "T-1"); err != nil {
		t.Fatalf("failed to fetch issue: %v", err)
	}
}

// TestClientCollect tests the search-then-fetch pipeline.
func TestClientCollect(t *testing.T) {
	t.Parallel()

	t.Run("collects records in key order", func(t *testing.T) {
		t.Parallel()

		keys := []string{"T-1", "T-2", "T-3"}
		srv := newSearchServer(t, keys, nil)
		defer srv.Close()

		client, err := NewClient(srv.URL+"/rest/api/2", WithWorkers(2))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ds, err := client.Collect(context.Background(), "project = T")
		if err != nil {
			t.Fatalf("failed to collect: %v", err)
		}
		if ds.Len() != 3 {
			t.Fatalf("expected 3 records, got %d", ds.Len())
		}
		for i, key := range keys {
			if ds.Records[i].Ref != key {
				t.Errorf("expected %q at %d, got %q", key, i, ds.Records[i].Ref)
			}
		}
		if got := ds.Records[0].Get(model.FieldType); got != "Bug" {
			t.Errorf("expected Type 'Bug', got %q", got)
		}
	})

	t.Run("skips issues that fail to fetch", func(t *testing.T) {
		t.Parallel()

		srv := newSearchServer(t, []string{"T-1", "T-2", "T-3"}, map[string]bool{"T-2": true})
		defer srv.Close()

		client, err := NewClient(srv.URL + "/rest/api/2")
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ds, err := client.Collect(context.Background(), "project = T")
		if err != nil {
			t.Fatalf("failed to collect: %v", err)
		}
		if ds.Len() != 2 {
			t.Fatalf("expected 2 records, got %d", ds.Len())
		}
		if ds.Skipped != 1 {
			t.Errorf("expected 1 skipped, got %d", ds.Skipped)
		}
		if ds.Records[0].Ref != "T-1" || ds.Records[1].Ref != "T-3" {
			t.Errorf("unexpected record order: %q, %q", ds.Records[0].Ref, ds.Records[1].Ref)
		}
	})
}
