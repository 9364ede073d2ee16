// Package main provides the entry point for the trawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for trawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trawl",
		Short: "Collect issue-tracker and repository data",
		Long: `Trawl collects issue-tracker and repository data for analysis.

It crawls rendered Jira issue lists with a headless browser (crawl),
fetches the same data over the Jira REST API (jira), and snapshots
GitHub repository metrics for an organization (github).

Credentials are read from the environment: JIRA_TOKEN for Jira,
GITHUB_TOKEN for GitHub. Tokens are never passed on the command line.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewJiraCmd())
	cmd.AddCommand(NewGitHubCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
