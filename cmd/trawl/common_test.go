package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evangoldenberg/trawl/internal/config"
	"github.com/evangoldenberg/trawl/internal/model"
)

// TestOutputPath tests export path resolution.
func TestOutputPath(t *testing.T) {
	t.Parallel()

	t.Run("explicit output wins", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Output = "out/issues.csv"
		cfg.OutputPrefix = "issues"
		if got := outputPath(cfg); got != "out/issues.csv" {
			t.Errorf("unexpected path: %q", got)
		}
	})

	t.Run("date-stamped name per format", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			format string
			ext    string
		}{
			{config.FormatCSV, ".csv"},
			{config.FormatJSON, ".json"},
			{config.FormatMarkdown, ".md"},
		}
		for _, tt := range tests {
			cfg := config.NewConfig()
			cfg.Format = tt.format
			cfg.OutputPrefix = "issues"

			got := outputPath(cfg)
			if !strings.HasPrefix(got, "issues_") || !strings.HasSuffix(got, tt.ext) {
				t.Errorf("unexpected %s path: %q", tt.format, got)
			}
		}
	})
}

// TestOpenOutput tests output file creation.
func TestOpenOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "issues.csv")
	f, err := openOutput(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString("Ref\n"); err != nil {
		t.Errorf("failed to write output: %v", err)
	}
}

// TestWriteDataset tests format selection.
func TestWriteDataset(t *testing.T) {
	t.Parallel()

	ds := model.NewDataset("src")
	rec := model.NewRecord("https://issues.example.org/jira/browse/T-1")
	rec.Set(model.FieldType, "Bug")
	ds.Append(rec)

	tests := []struct {
		format string
		want   string
	}{
		{config.FormatCSV, "Ref,"},
		{config.FormatJSON, "\"records\""},
		{config.FormatMarkdown, "# Collection Report"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.Format = tt.format

			var buf bytes.Buffer
			if err := writeDataset(cfg, &buf, ds); err != nil {
				t.Fatalf("failed to write dataset: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %s output to contain %q", tt.format, tt.want)
			}
		})
	}
}
