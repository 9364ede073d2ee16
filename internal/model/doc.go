// Package model defines the data structures shared across trawl:
// flat detail records extracted from issue pages, the dataset that
// accumulates them over a run, and per-repository metric summaries
// produced by the GitHub collector.
package model
