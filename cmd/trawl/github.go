package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evangoldenberg/trawl/internal/config"
	"github.com/evangoldenberg/trawl/internal/export"
	"github.com/evangoldenberg/trawl/internal/githubmeta"
)

// NewGitHubCmd creates the github command.
func NewGitHubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github <org>",
		Short: "Snapshot repository metrics for a GitHub organization",
		Long: `Github collects per-repository metrics for every repository of an
organization: commit, contributor, branch, tag and release counts,
stars, forks, deployment environments, closed issues, and per-language
byte counts.

The snapshot is written as a JSON array with a date-stamped filename so
successive runs sort chronologically. Set GITHUB_TOKEN to raise the API
rate limit.

Examples:
  # Snapshot the Kaggle organization
  trawl github Kaggle

  # Custom prefix: writes acme_metrics_YYYY_MM_DD.json
  trawl github --prefix acme_metrics acme`,
		Args: cobra.ExactArgs(1),
		RunE: runGitHubCmd,
	}

	cmd.Flags().IntP("workers", "w", config.DefaultDetailWorkers,
		"Number of repositories collected concurrently")
	cmd.Flags().String("prefix", "",
		"Output filename prefix (default: <org>_data)")
	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: <prefix>_YYYY_MM_DD.json)")

	return cmd
}

// runGitHubCmd executes the github command.
func runGitHubCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildGitHubConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	return runGitHub(ctx, cfg, logger)
}

// buildGitHubConfig creates a Config from cobra command flags.
func buildGitHubConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Org = args[0]
	cfg.Format = config.FormatJSON

	var err error
	if cfg.DetailWorkers, err = cmd.Flags().GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.OutputPrefix, err = cmd.Flags().GetString("prefix"); err != nil {
		return nil, err
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = cfg.Org + "_data"
	}
	if cfg.Output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runGitHub executes the metrics snapshot.
func runGitHub(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting metrics snapshot",
		"org", cfg.Org,
		"workers", cfg.DetailWorkers,
		"authenticated", cfg.GitHubToken != "",
	)

	collector := githubmeta.NewCollector(cfg.GitHubToken,
		githubmeta.WithWorkers(cfg.DetailWorkers),
		githubmeta.WithLogger(logger),
	)

	results, err := collector.CollectOrg(ctx, cfg.Org)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	path := outputPath(cfg)
	f, err := openOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := export.NewJSONWriter(f, export.WithPrettyPrint()).WriteMetrics(results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info("snapshot written", "path", path, "repositories", len(results))
	return nil
}
