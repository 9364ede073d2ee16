package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/evangoldenberg/trawl/internal/browser"
	"github.com/evangoldenberg/trawl/internal/config"
	"github.com/evangoldenberg/trawl/internal/crawler"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <index-url>",
		Short: "Crawl a rendered issue index with a headless browser",
		Long: `Crawl drives a headless browser through a paginated issue index,
collecting every item link by clicking the "next page" control until it
disappears, then visits each detail page and extracts a flat record.

Examples:
  # Crawl the active CAMEL issues and write a CSV
  trawl crawl https://issues.apache.org/jira/projects/CAMEL/issues

  # JSON output to an explicit file
  trawl crawl --format json --output issues.json https://...

  # Render detail pages in the browser too (for indexes whose detail
  # views are client-side rendered)
  trawl crawl --browser-details https://...

Configuration file (.trawl) example:
  sites:
    issues.apache.org:
      cookie: "JSESSIONID=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each detail page request")
	cmd.Flags().Duration("wait-timeout", config.DefaultWaitTimeout,
		"Timeout waiting for the next-page control")
	cmd.Flags().Duration("page-delay", config.DefaultPageDelay,
		"Settle time after navigation before reading the page")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of index pages to visit")
	cmd.Flags().IntP("workers", "w", config.DefaultDetailWorkers,
		"Number of concurrent detail fetches")
	cmd.Flags().Int("next-retries", config.DefaultNextRetries,
		"Retries for a failing next-page click")
	cmd.Flags().Bool("headful", false,
		"Run the browser with a visible window")
	cmd.Flags().Bool("browser-details", false,
		"Fetch detail pages through the browser instead of plain HTTP")
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: csv, json, or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: issues_YYYY_MM_DD.<ext>)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .trawl in current or home directory)")
	cmd.Flags().Bool("db", false,
		"Also save the run to the local run database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, browserDetails, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCrawl(ctx, cfg, browserDetails, logger)
}

// buildCrawlConfig creates a Config from cobra command flags.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, bool, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.IndexURL = args[0]
	cfg.OutputPrefix = "issues"

	var err error
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, false, err
	}
	if cfg.WaitTimeout, err = cmd.Flags().GetDuration("wait-timeout"); err != nil {
		return nil, false, err
	}
	if cfg.PageDelay, err = cmd.Flags().GetDuration("page-delay"); err != nil {
		return nil, false, err
	}
	if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return nil, false, err
	}
	if cfg.DetailWorkers, err = cmd.Flags().GetInt("workers"); err != nil {
		return nil, false, err
	}
	if cfg.NextRetries, err = cmd.Flags().GetInt("next-retries"); err != nil {
		return nil, false, err
	}

	headful, err := cmd.Flags().GetBool("headful")
	if err != nil {
		return nil, false, err
	}
	cfg.Headless = !headful

	browserDetails, err := cmd.Flags().GetBool("browser-details")
	if err != nil {
		return nil, false, err
	}

	if cfg.Format, err = cmd.Flags().GetString("format"); err != nil {
		return nil, false, err
	}
	if cfg.Output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, false, err
	}
	if cfg.SaveToDB, err = cmd.Flags().GetBool("db"); err != nil {
		return nil, false, err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, false, err
	}
	if err := loadSiteConfigs(cfg, configPath); err != nil {
		return nil, false, err
	}

	return cfg, browserDetails, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, browserDetails bool, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"index", cfg.IndexURL,
		"maxPages", cfg.MaxPages,
		"workers", cfg.DetailWorkers,
		"browserDetails", browserDetails,
	)

	b, err := browser.New(cfg.Headless)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer b.Close()

	session, err := b.NewSession(
		browser.WithWaitTimeout(cfg.WaitTimeout),
		browser.WithSettleDelay(cfg.PageDelay),
		browser.WithSessionLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.Close()

	fetcher, err := detailFetcher(cfg, session, browserDetails)
	if err != nil {
		return err
	}

	c := crawler.New(session, fetcher,
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithNextRetries(cfg.NextRetries),
		crawler.WithDetailWorkers(cfg.DetailWorkers),
		crawler.WithLogger(logger),
	)

	ds, err := c.Run(ctx, cfg.IndexURL)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	if ds.Len() == 0 && ds.Skipped == 0 {
		logger.Warn("index yielded no items", "index", cfg.IndexURL)
	}

	if err := exportDataset(cfg, logger, ds); err != nil {
		return err
	}
	persistRun(ctx, cfg, logger, ds)
	return nil
}

// detailFetcher picks how detail pages are fetched: the browser session
// for client-side rendered pages, plain HTTP otherwise.
func detailFetcher(cfg *config.Config, session *browser.Session, browserDetails bool) (crawler.Fetcher, error) {
	if browserDetails {
		return session, nil
	}

	indexURL, err := url.Parse(cfg.IndexURL)
	if err != nil || indexURL.Host == "" {
		return nil, errors.New("index URL must be an absolute http(s) URL")
	}

	return crawler.NewHTTPFetcher(
		&http.Client{Timeout: cfg.Timeout},
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithSiteConfig(cfg.Sites.Site(indexURL.Host)),
	), nil
}
