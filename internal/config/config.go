package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Where the original collection scripts had
// a fixed constant, the same value is kept as the default here.
const (
	// DefaultTimeout is the per-request timeout for REST and API calls.
	// The targets are public clearnet services, so a short timeout keeps
	// failed items from stalling a run.
	DefaultTimeout = 30 * time.Second

	// DefaultWaitTimeout bounds the wait for the "next page" control to
	// become present and clickable before enumeration gives up on it.
	DefaultWaitTimeout = 10 * time.Second

	// DefaultPageDelay is the settle time after navigating or clicking
	// before the rendered page source is read. Issue index pages load
	// their list asynchronously, so an immediate read sees an empty list.
	DefaultPageDelay = 2 * time.Second

	// DefaultMaxPages caps index enumeration. The cap exists only to
	// bound runaway pagination; a normal run terminates when the next
	// control disappears.
	DefaultMaxPages = 200

	// DefaultDetailWorkers is the number of concurrent detail fetches.
	// 1 preserves the strictly sequential behavior of the original
	// scripts; higher values are an explicit opt-in.
	DefaultDetailWorkers = 1

	// DefaultNextRetries is how many times a failed click on a present
	// "next" control is retried before enumeration stops. A control that
	// is absent is never retried; absence means end of list.
	DefaultNextRetries = 2

	// DefaultFormat is the default export format.
	DefaultFormat = FormatCSV

	// DefaultUserAgent identifies trawl in HTTP requests.
	DefaultUserAgent = "trawl/1.0 (+https://github.com/evangoldenberg/trawl)"

	// AppName is the application name used for XDG directory paths.
	AppName = "trawl"
)

// Export formats accepted by the --format flag.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Environment variables consulted for credentials. Tokens never appear
// on the command line, where they would leak into shell history and
// process listings.
const (
	EnvJiraToken   = "JIRA_TOKEN"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// Config holds all options for a trawl run. It is populated from CLI
// flags and the environment, validated once after parsing, and then
// passed explicitly to every network-calling component. Nothing mutates
// it after startup.
type Config struct {
	// Verbose enables debug-level log output.
	Verbose bool

	// Timeout is the per-request timeout for REST and API calls.
	Timeout time.Duration

	// WaitTimeout bounds the wait for the pagination control.
	WaitTimeout time.Duration

	// PageDelay is the settle time before reading a rendered page.
	PageDelay time.Duration

	// MaxPages caps the number of index pages visited per run.
	MaxPages int

	// DetailWorkers is the number of concurrent detail fetches.
	DetailWorkers int

	// NextRetries is the retry budget for a failing "next" click.
	NextRetries int

	// Headless controls whether the browser runs without a window.
	Headless bool

	// Format selects the export format: csv, json, or markdown.
	Format string

	// Output is the export file path. When empty, a date-stamped name
	// derived from OutputPrefix is used in the current directory.
	Output string

	// OutputPrefix is the filename prefix for date-stamped output.
	OutputPrefix string

	// IndexURL is the starting index page for browser crawls.
	IndexURL string

	// JiraBaseURL is the REST API root for the jira command,
	// e.g. https://issues.apache.org/jira/rest/api/2.
	JiraBaseURL string

	// JQL is the issue search query for the jira command.
	JQL string

	// JiraToken is the optional bearer token for Jira requests.
	JiraToken string

	// Org is the GitHub organization for the github command.
	Org string

	// GitHubToken is the optional token for GitHub API requests.
	// Unauthenticated runs work but hit rate limits quickly.
	GitHubToken string

	// UserAgent is sent with plain HTTP requests.
	UserAgent string

	// SaveToDB enables persisting the run to the SQLite database.
	SaveToDB bool

	// DBDir is the directory holding the run database.
	// Defaults to the XDG data directory for trawl.
	DBDir string

	// Sites holds per-site headers and cookies from the config file.
	Sites *File
}

// NewConfig creates a Config with defaults applied and credentials read
// from the environment.
func NewConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		WaitTimeout:   DefaultWaitTimeout,
		PageDelay:     DefaultPageDelay,
		MaxPages:      DefaultMaxPages,
		DetailWorkers: DefaultDetailWorkers,
		NextRetries:   DefaultNextRetries,
		Headless:      true,
		Format:        DefaultFormat,
		UserAgent:     DefaultUserAgent,
		JiraToken:     os.Getenv(EnvJiraToken),
		GitHubToken:   os.Getenv(EnvGitHubToken),
		DBDir:         XDGDataDir(),
		Sites:         &File{Sites: make(map[string]SiteConfig)},
	}
}

// XDGDataDir returns the XDG data directory for trawl.
// On Linux: ~/.local/share/trawl.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after CLI parsing, before any network activity.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.WaitTimeout <= 0 {
		return ErrInvalidWaitTimeout
	}
	if c.PageDelay < 0 {
		return ErrInvalidPageDelay
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.DetailWorkers <= 0 {
		return ErrInvalidDetailWorkers
	}
	switch c.Format {
	case FormatCSV, FormatJSON, FormatMarkdown:
	default:
		return ErrInvalidFormat
	}
	return nil
}
