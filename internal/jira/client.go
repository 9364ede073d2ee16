package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/evangoldenberg/trawl/internal/model"
)

// Client talks to a Jira REST API root, e.g.
// https://issues.apache.org/jira/rest/api/2.
type Client struct {
	httpClient *http.Client
	apiRoot    *url.URL

	// token, when set, is attached as a bearer Authorization header.
	token string

	// pageSize is the maxResults value for search pagination.
	pageSize int

	// workers bounds concurrent single-issue fetches in Collect.
	workers int

	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPageSize sets the search page size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithWorkers bounds concurrent issue fetches in Collect.
func WithWorkers(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the given API root.
func NewClient(apiRoot string, opts ...ClientOption) (*Client, error) {
	root, err := url.Parse(apiRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid API root %q: %w", apiRoot, err)
	}
	// Request paths are appended verbatim, so a trailing slash here
	// would produce double slashes like "/rest/api/2//search".
	root.Path = strings.TrimSuffix(root.Path, "/")

	c := &Client{
		httpClient: http.DefaultClient,
		apiRoot:    root,
		pageSize:   50,
		workers:    1,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// get performs an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	u := *c.apiRoot
	u.Path += path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("GET", "url", u.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("non-ok status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// searchPage is one page of a JQL search response.
type searchPage struct {
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Total      int      `json:"total"`
	Issues     []*Issue `json:"issues"`
}

// SearchKeys runs a JQL search and returns all matching issue keys in
// result order, walking startAt pagination until the reported total is
// reached. A failing search is fatal: without the key list there is no
// run to continue.
func (c *Client) SearchKeys(ctx context.Context, jql string) ([]string, error) {
	keys := make([]string, 0)
	seen := make(map[string]bool)

	for startAt := 0; ; {
		q := make(url.Values)
		q.Set("jql", jql)
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(c.pageSize))
		q.Set("fields", "key")

		var page searchPage
		if err := c.get(ctx, "/search", q, &page); err != nil {
			return nil, fmt.Errorf("search %q: %w", jql, err)
		}

		for _, issue := range page.Issues {
			if issue.Key != "" && !seen[issue.Key] {
				seen[issue.Key] = true
				keys = append(keys, issue.Key)
			}
		}

		startAt += len(page.Issues)
		if startAt >= page.Total || len(page.Issues) == 0 {
			break
		}
	}

	return keys, nil
}

// Issue fetches one issue with all collected fields.
func (c *Client) Issue(ctx context.Context, key string) (*Issue, error) {
	var issue Issue
	if err := c.get(ctx, "/issue/"+url.PathEscape(key), nil, &issue); err != nil {
		return nil, fmt.Errorf("issue %s: %w", key, err)
	}
	return &issue, nil
}

// Collect runs the REST variant of the list-then-detail pipeline:
// enumerate keys via search, fetch each issue, flatten to records in
// key order. Issues that fail to fetch are logged and skipped.
func (c *Client) Collect(ctx context.Context, jql string) (*model.Dataset, error) {
	keys, err := c.SearchKeys(ctx, jql)
	if err != nil {
		return nil, err
	}
	c.logger.Info("found issues", "count", len(keys))

	results := make([]*model.Record, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, key := range keys {
		g.Go(func() error {
			issue, err := c.Issue(gctx, key)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("skipping issue", "key", key, "error", err)
				return nil
			}
			results[i] = issue.ToRecord()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := model.NewDataset("jql: " + jql)
	for _, rec := range results {
		if rec == nil {
			ds.Skipped++
			continue
		}
		ds.Append(rec)
	}
	return ds, nil
}
