package main

import (
	"strings"
	"testing"

	"github.com/evangoldenberg/trawl/internal/config"
)

// TestNewGitHubCmd tests the github command creation.
func TestNewGitHubCmd(t *testing.T) {
	t.Parallel()

	cmd := NewGitHubCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "github <org>" {
			t.Errorf("unexpected use: %q", cmd.Use)
		}
	})

	t.Run("has prefix and output flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"prefix", "output", "workers"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %q flag", name)
			}
		}
	})
}

// TestBuildGitHubConfig tests flag-to-config translation.
func TestBuildGitHubConfig(t *testing.T) {
	t.Parallel()

	t.Run("prefix defaults to org name", func(t *testing.T) {
		t.Parallel()

		cmd := NewGitHubCmd()
		cfg, err := buildGitHubConfig(cmd, []string{"Kaggle"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if cfg.Org != "Kaggle" {
			t.Errorf("unexpected org: %q", cfg.Org)
		}
		if cfg.OutputPrefix != "Kaggle_data" {
			t.Errorf("unexpected prefix: %q", cfg.OutputPrefix)
		}
		if cfg.Format != config.FormatJSON {
			t.Errorf("expected JSON format, got %q", cfg.Format)
		}
	})

	t.Run("snapshot filename is date-stamped JSON", func(t *testing.T) {
		t.Parallel()

		cmd := NewGitHubCmd()
		cfg, err := buildGitHubConfig(cmd, []string{"acme"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}

		got := outputPath(cfg)
		if !strings.HasPrefix(got, "acme_data_") || !strings.HasSuffix(got, ".json") {
			t.Errorf("unexpected snapshot path: %q", got)
		}
	})

	t.Run("explicit prefix wins", func(t *testing.T) {
		t.Parallel()

		cmd := NewGitHubCmd()
		if err := cmd.Flags().Set("prefix", "acme_metrics"); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}
		cfg, err := buildGitHubConfig(cmd, []string{"acme"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if cfg.OutputPrefix != "acme_metrics" {
			t.Errorf("unexpected prefix: %q", cfg.OutputPrefix)
		}
	})
}
