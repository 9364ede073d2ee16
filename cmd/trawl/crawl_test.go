package main

import (
	"testing"

	"github.com/evangoldenberg/trawl/internal/config"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl <index-url>" {
			t.Errorf("unexpected use: %q", cmd.Use)
		}
	})

	t.Run("has expected flags with defaults", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			defValue string
		}{
			{"timeout", "30s"},
			{"wait-timeout", "10s"},
			{"page-delay", "2s"},
			{"max-pages", "200"},
			{"workers", "1"},
			{"next-retries", "2"},
			{"headful", "false"},
			{"browser-details", "false"},
			{"format", config.FormatCSV},
			{"db", "false"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %q flag", tt.name)
				continue
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected %q default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})
}

// TestBuildCrawlConfig tests flag-to-config translation.
func TestBuildCrawlConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		cfg, browserDetails, err := buildCrawlConfig(cmd, []string{"https://issues.example.org/jira/projects/T/issues"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}

		if cfg.IndexURL != "https://issues.example.org/jira/projects/T/issues" {
			t.Errorf("unexpected index URL: %q", cfg.IndexURL)
		}
		if !cfg.Headless {
			t.Error("expected headless by default")
		}
		if browserDetails {
			t.Error("expected plain HTTP details by default")
		}
		if cfg.OutputPrefix != "issues" {
			t.Errorf("unexpected output prefix: %q", cfg.OutputPrefix)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Set("max-pages", "5"); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}
		if err := cmd.Flags().Set("headful", "true"); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}

		cfg, _, err := buildCrawlConfig(cmd, []string{"https://example.org"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if cfg.MaxPages != 5 {
			t.Errorf("expected max pages 5, got %d", cfg.MaxPages)
		}
		if cfg.Headless {
			t.Error("expected headful browser")
		}
	})

	t.Run("explicit missing config file errors", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Set("config", "/nonexistent/.trawl"); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}
		if _, _, err := buildCrawlConfig(cmd, []string{"https://example.org"}); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("invalid format fails validation", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Set("format", "xml"); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}
		cfg, _, err := buildCrawlConfig(cmd, []string{"https://example.org"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for format xml")
		}
	})
}
