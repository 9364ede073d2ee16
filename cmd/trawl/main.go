// Package main provides the entry point for the trawl CLI.
//
// Trawl collects issue-tracker and repository data for analysis:
// it crawls rendered Jira issue lists with a headless browser, fetches
// the same data over the Jira REST API, and snapshots GitHub repository
// metrics for an organization.
//
// Usage:
//
//	trawl crawl <index-url>
//	trawl jira --jql <query>
//	trawl github <org>
//
// See --help for all available options.
package main

// main is the entry point for trawl.
func main() {
	Execute()
}
