// Package config provides configuration structures and utilities for trawl.
// It defines the options for browser crawls, REST fetches, the GitHub
// metrics collector, and dataset export.
package config
