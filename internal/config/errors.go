package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Package-level sentinel errors let callers use errors.Is while still
// reading well in CLI diagnostics.
var (
	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWaitTimeout is returned when the pagination-control wait
	// is not positive. A zero wait would treat every slow page as the
	// end of the list.
	ErrInvalidWaitTimeout = errors.New("invalid wait timeout: must be positive")

	// ErrInvalidPageDelay is returned when the page settle delay is
	// negative. Use 0 for no delay.
	ErrInvalidPageDelay = errors.New("invalid page delay: must be non-negative")

	// ErrInvalidMaxPages is returned when the index page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidDetailWorkers is returned when the detail worker count is
	// not positive. Use 1 for sequential fetching.
	ErrInvalidDetailWorkers = errors.New("invalid detail workers: must be positive")

	// ErrInvalidFormat is returned for unknown export formats.
	ErrInvalidFormat = errors.New("invalid format: want csv, json, or markdown")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
