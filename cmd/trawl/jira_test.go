package main

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestNewJiraCmd tests the jira command creation.
func TestNewJiraCmd(t *testing.T) {
	t.Parallel()

	cmd := NewJiraCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "jira" {
			t.Errorf("unexpected use: %q", cmd.Use)
		}
	})

	t.Run("jql flag is required", func(t *testing.T) {
		t.Parallel()

		flag := cmd.Flags().Lookup("jql")
		if flag == nil {
			t.Fatal("expected jql flag")
		}
		if flag.Annotations[cobra.BashCompOneRequiredFlag] == nil {
			t.Error("expected jql flag to be required")
		}
	})

	t.Run("base URL defaults to Apache Jira", func(t *testing.T) {
		t.Parallel()

		flag := cmd.Flags().Lookup("base-url")
		if flag == nil {
			t.Fatal("expected base-url flag")
		}
		if flag.DefValue != defaultJiraRoot {
			t.Errorf("unexpected default: %q", flag.DefValue)
		}
	})
}

// TestBuildJiraConfig tests flag-to-config translation.
func TestBuildJiraConfig(t *testing.T) {
	t.Parallel()

	cmd := NewJiraCmd()
	if err := cmd.Flags().Set("jql", "project = T"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if err := cmd.Flags().Set("workers", "4"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	cfg, err := buildJiraConfig(cmd)
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	if cfg.JQL != "project = T" {
		t.Errorf("unexpected JQL: %q", cfg.JQL)
	}
	if cfg.JiraBaseURL != defaultJiraRoot {
		t.Errorf("unexpected base URL: %q", cfg.JiraBaseURL)
	}
	if cfg.DetailWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.DetailWorkers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should validate: %v", err)
	}
}
