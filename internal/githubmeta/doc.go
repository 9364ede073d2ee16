// Package githubmeta collects repository metrics from the GitHub API.
//
// For every repository of an organization it gathers endpoint counts
// (commits, contributors, branches, tags, releases) by requesting a
// single item per page and reading the last page number from the Link
// header, plus stars, forks, deployment environments, the closed issue
// total from the search API, and per-language byte counts.
//
// Repositories are collected on a bounded worker pool. A repository
// that fails entirely is reported with zeroed metrics and its error so
// a partial run stays inspectable.
package githubmeta
