package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/evangoldenberg/trawl/internal/config"
)

// HTTPFetcher loads detail pages over plain HTTP. The issue detail pages
// are server-rendered, so the browser is only needed for the index and
// its scripted pagination control; details can skip the browser entirely.
type HTTPFetcher struct {
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// site carries per-host cookie and headers from the config file.
	site config.SiteConfig

	// maxBodySize limits the response body size.
	maxBodySize int64
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithSiteConfig attaches per-host cookie and headers to every request.
func WithSiteConfig(site config.SiteConfig) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.site = site
	}
}

// WithMaxBodySize limits how much of a response body is read.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher using the given client.
func NewHTTPFetcher(client *http.Client, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: 5 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads the page at the given URL and returns its HTML.
// Non-2xx responses are transport failures: the caller logs and skips
// that single reference.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if f.site.Cookie != "" {
		req.Header.Set("Cookie", f.site.Cookie)
	}
	for k, v := range f.site.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("non-success status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
