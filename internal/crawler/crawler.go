package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/evangoldenberg/trawl/internal/model"
)

// ErrNoNextControl is returned by Pager.NextPage when the pagination
// control is absent from the current page. This is the normal end of
// index enumeration, not a failure.
var ErrNoNextControl = errors.New("no next-page control on current page")

// Pager drives a paginated index view. Implementations own page-load
// settling; HTML must not return until the page content is stable.
type Pager interface {
	// Open navigates to the given index URL.
	Open(ctx context.Context, url string) error

	// HTML returns the current page source.
	HTML(ctx context.Context) (string, error)

	// NextPage activates the next-page control. It returns
	// ErrNoNextControl when the control is absent.
	NextPage(ctx context.Context) error
}

// Fetcher loads one detail page and returns its HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Crawler runs the list-then-detail crawl: enumerate all item references
// from a paginated index, then materialize one flat record per reference.
type Crawler struct {
	pager   Pager
	fetcher Fetcher

	// maxPages caps index enumeration as a guard against runaway
	// pagination; normal termination is ErrNoNextControl.
	maxPages int

	// nextRetries is the retry budget for a failing click on a control
	// that is present. Absence is terminal and never retried.
	nextRetries int

	// workers bounds concurrent detail fetches. 1 means sequential.
	workers int

	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxPages caps the number of index pages visited.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithNextRetries sets the retry budget for a failing next-page click.
func WithNextRetries(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.nextRetries = n
		}
	}
}

// WithDetailWorkers bounds concurrent detail fetches.
func WithDetailWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler over the given pager and fetcher.
func New(pager Pager, fetcher Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		pager:       pager,
		fetcher:     fetcher,
		maxPages:    200,
		nextRetries: 2,
		workers:     1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnumerateIndex walks the paginated index starting at startURL and
// returns every discovered item reference exactly once, in first-seen
// order. Failing to open the start page is the only fatal error; all
// pagination trouble terminates enumeration with whatever was found.
func (c *Crawler) EnumerateIndex(ctx context.Context, startURL string) ([]string, error) {
	if err := c.pager.Open(ctx, startURL); err != nil {
		return nil, fmt.Errorf("open index %s: %w", startURL, err)
	}

	seen := make(map[string]bool)
	refs := make([]string, 0)

	for page := 0; page < c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return refs, err
		}

		source, err := c.pager.HTML(ctx)
		if err != nil {
			c.logger.Warn("failed reading index page, stopping enumeration",
				"page", page, "error", err)
			break
		}

		doc, err := ParseDocument(startURL, strings.NewReader(source))
		if err != nil {
			c.logger.Warn("failed parsing index page, stopping enumeration",
				"page", page, "error", err)
			break
		}

		for _, link := range IndexLinks(doc) {
			if !seen[link] {
				seen[link] = true
				refs = append(refs, link)
			}
		}

		if !c.advance(ctx, page) {
			break
		}
	}

	c.logger.Debug("index enumeration complete", "references", len(refs))
	return refs, nil
}

// advance activates the next-page control, retrying transient click
// failures. It reports whether enumeration should continue.
func (c *Crawler) advance(ctx context.Context, page int) bool {
	for attempt := 0; ; attempt++ {
		err := c.pager.NextPage(ctx)
		if err == nil {
			return true
		}
		if errors.Is(err, ErrNoNextControl) {
			c.logger.Debug("no more index pages", "pages", page+1)
			return false
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		if attempt >= c.nextRetries {
			c.logger.Warn("next-page control kept failing, treating as end of list",
				"page", page, "attempts", attempt+1, "error", err)
			return false
		}
		c.logger.Debug("retrying next-page control", "page", page, "error", err)
	}
}

// FetchDetail loads one detail page and extracts its flat record.
// Only transport-level failures return an error; missing fields do not.
func (c *Crawler) FetchDetail(ctx context.Context, ref string) (*model.Record, error) {
	source, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}

	doc, err := ParseDocument(ref, strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ref, err)
	}

	return ExtractRecord(ref, doc), nil
}

// Run executes the full crawl: enumerate once, fetch a detail record for
// every reference in discovered order, and return the accumulated
// dataset. Individual references that fail are logged and skipped; the
// run only fails when the index itself is unreachable.
func (c *Crawler) Run(ctx context.Context, startURL string) (*model.Dataset, error) {
	refs, err := c.EnumerateIndex(ctx, startURL)
	if err != nil {
		return nil, err
	}
	c.logger.Info("found issues", "count", len(refs))

	// Results are placed by index so the dataset keeps discovery order
	// regardless of worker interleaving.
	results := make([]*model.Record, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, ref := range refs {
		g.Go(func() error {
			rec, err := c.FetchDetail(gctx, ref)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("skipping issue", "ref", ref, "error", err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := model.NewDataset(startURL)
	for _, rec := range results {
		if rec == nil {
			ds.Skipped++
			continue
		}
		ds.Append(rec)
	}
	return ds, nil
}
