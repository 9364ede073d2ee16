package githubmeta

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v63/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/evangoldenberg/trawl/internal/model"
)

// Metric names in query order.
const (
	MetricCommits      = "commits"
	MetricContributors = "contributors"
	MetricBranches     = "branches"
	MetricTags         = "tags"
	MetricReleases     = "releases"
	MetricStars        = "stars"
	MetricForks        = "forks"
	MetricEnvironments = "environments"
	MetricClosedIssues = "closed issues"
)

// singleItem asks for one item per page so the Link header's last page
// number equals the total item count.
var singleItem = github.ListOptions{PerPage: 1}

// Collector gathers per-repository metrics for an organization.
type Collector struct {
	client *github.Client

	// workers bounds concurrent per-repository collection.
	workers int

	logger *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithWorkers bounds concurrent per-repository collection.
func WithWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(raw string) Option {
	return func(c *Collector) {
		u, err := url.Parse(raw)
		if err != nil {
			return
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.client.BaseURL = u
	}
}

// NewCollector creates a collector. When token is non-empty all
// requests are authenticated with it.
func NewCollector(token string, opts ...Option) *Collector {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}

	c := &Collector{
		client:  client,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListRepos returns the names of all repositories of the organization,
// walking pagination to the end. A failing listing is fatal: without
// the repository list there is no run to continue.
func (c *Collector) ListRepos(ctx context.Context, org string) ([]string, error) {
	names := make([]string, 0)

	opt := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, org, opt)
		if err != nil {
			return nil, fmt.Errorf("list repositories for %s: %w", org, err)
		}
		for _, repo := range repos {
			names = append(names, repo.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return names, nil
}

// CollectOrg collects metrics for every repository of the organization
// on a bounded worker pool. A repository that fails is reported with
// its error and the run continues.
func (c *Collector) CollectOrg(ctx context.Context, org string) ([]*model.RepoMetrics, error) {
	names, err := c.ListRepos(ctx, org)
	if err != nil {
		return nil, err
	}
	c.logger.Info("found repositories", "org", org, "count", len(names))

	results := make([]*model.RepoMetrics, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, name := range names {
		g.Go(func() error {
			metrics, err := c.CollectRepo(gctx, org, name)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("collection failed", "repository", name, "error", err)
				metrics = &model.RepoMetrics{Repository: name, Err: err.Error()}
			}
			results[i] = metrics
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// CollectRepo collects the full metric set for one repository. An
// endpoint that cannot be counted contributes zero; only a failure to
// fetch the repository resource itself fails the repository.
func (c *Collector) CollectRepo(ctx context.Context, owner, name string) (*model.RepoMetrics, error) {
	metrics := &model.RepoMetrics{Repository: name}

	counters := []struct {
		name  string
		count func(context.Context) (int, *github.Response, error)
	}{
		{MetricCommits, func(ctx context.Context) (int, *github.Response, error) {
			items, resp, err := c.client.Repositories.ListCommits(ctx, owner, name,
				&github.CommitsListOptions{ListOptions: singleItem})
			return len(items), resp, err
		}},
		{MetricContributors, func(ctx context.Context) (int, *github.Response, error) {
			items, resp, err := c.client.Repositories.ListContributors(ctx, owner, name,
				&github.ListContributorsOptions{ListOptions: singleItem})
			return len(items), resp, err
		}},
		{MetricBranches, func(ctx context.Context) (int, *github.Response, error) {
			items, resp, err := c.client.Repositories.ListBranches(ctx, owner, name,
				&github.BranchListOptions{ListOptions: singleItem})
			return len(items), resp, err
		}},
		{MetricTags, func(ctx context.Context) (int, *github.Response, error) {
			items, resp, err := c.client.Repositories.ListTags(ctx, owner, name, &singleItem)
			return len(items), resp, err
		}},
		{MetricReleases, func(ctx context.Context) (int, *github.Response, error) {
			items, resp, err := c.client.Repositories.ListReleases(ctx, owner, name, &singleItem)
			return len(items), resp, err
		}},
	}
	for _, counter := range counters {
		onPage, resp, err := counter.count(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Empty repositories answer some of these endpoints
			// with an error or 204. Count zero and move on.
			c.logger.Debug("endpoint not countable", "repository", name, "endpoint", counter.name, "error", err)
			metrics.AddMetric(counter.name, 0)
			continue
		}
		metrics.AddMetric(counter.name, lastPageCount(resp, onPage))
	}

	repo, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}
	metrics.AddMetric(MetricStars, repo.GetStargazersCount())
	metrics.AddMetric(MetricForks, repo.GetForksCount())

	metrics.AddMetric(MetricEnvironments, c.environmentCount(ctx, owner, name))
	metrics.AddMetric(MetricClosedIssues, c.closedIssueCount(ctx, owner, name))

	metrics.Languages = c.languages(ctx, owner, name)
	return metrics, nil
}

// lastPageCount derives a total from a single-item page. When the
// response fits one page GitHub omits the Link header and LastPage is
// zero, so the total is the number of items actually returned.
func lastPageCount(resp *github.Response, onPage int) int {
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage
	}
	return onPage
}

func (c *Collector) environmentCount(ctx context.Context, owner, name string) int {
	envs, _, err := c.client.Repositories.ListEnvironments(ctx, owner, name, &github.EnvironmentListOptions{})
	if err != nil {
		c.logger.Debug("environments not countable", "repository", name, "error", err)
		return 0
	}
	return envs.GetTotalCount()
}

func (c *Collector) closedIssueCount(ctx context.Context, owner, name string) int {
	query := fmt.Sprintf("repo:%s/%s is:issue is:closed", owner, name)
	result, _, err := c.client.Search.Issues(ctx, query, &github.SearchOptions{
		ListOptions: singleItem,
	})
	if err != nil {
		c.logger.Debug("closed issues not countable", "repository", name, "error", err)
		return 0
	}
	return result.GetTotal()
}

// languages returns per-language byte counts ordered by descending
// size, ties broken by name.
func (c *Collector) languages(ctx context.Context, owner, name string) []model.Language {
	byteCounts, _, err := c.client.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		c.logger.Debug("languages not countable", "repository", name, "error", err)
		return nil
	}

	languages := make([]model.Language, 0, len(byteCounts))
	for lang, size := range byteCounts {
		languages = append(languages, model.Language{Name: lang, Bytes: size})
	}
	sort.Slice(languages, func(i, j int) bool {
		if languages[i].Bytes != languages[j].Bytes {
			return languages[i].Bytes > languages[j].Bytes
		}
		return languages[i].Name < languages[j].Name
	})
	return languages
}
