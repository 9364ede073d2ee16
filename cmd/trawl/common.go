package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evangoldenberg/trawl/internal/config"
	"github.com/evangoldenberg/trawl/internal/database"
	"github.com/evangoldenberg/trawl/internal/export"
	"github.com/evangoldenberg/trawl/internal/log"
	"github.com/evangoldenberg/trawl/internal/model"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the redacting structured logger and installs it
// as the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// formatExtensions maps export formats to output file extensions.
var formatExtensions = map[string]string{
	config.FormatCSV:      "csv",
	config.FormatJSON:     "json",
	config.FormatMarkdown: "md",
}

// outputPath resolves the export file path: an explicit --output wins,
// otherwise a date-stamped name derived from the prefix is used in the
// current directory.
func outputPath(cfg *config.Config) string {
	if cfg.Output != "" {
		return cfg.Output
	}
	return export.DatedFilename(cfg.OutputPrefix, formatExtensions[cfg.Format], time.Now())
}

// openOutput creates or overwrites the output file, creating parent
// directories as needed.
func openOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// writeDataset exports the dataset in the configured format.
func writeDataset(cfg *config.Config, output io.Writer, ds *model.Dataset) error {
	var w export.Writer
	switch cfg.Format {
	case config.FormatJSON:
		w = export.NewJSONWriter(output, export.WithPrettyPrint())
	case config.FormatMarkdown:
		w = export.NewMarkdownWriter(output)
	default:
		w = export.NewCSVWriter(output)
	}
	_, err := w.Write(ds)
	return err
}

// exportDataset writes the dataset to its output file and reports the
// path written.
func exportDataset(cfg *config.Config, logger *slog.Logger, ds *model.Dataset) error {
	path := outputPath(cfg)
	f, err := openOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeDataset(cfg, f, ds); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info("dataset written", "path", path, "records", ds.Len(), "skipped", ds.Skipped)
	return nil
}

// persistRun saves the dataset to the run database when enabled.
// Persistence failures are logged, never fatal: the export on disk is
// the run's primary output.
func persistRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, ds *model.Dataset) {
	if !cfg.SaveToDB {
		return
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open run database", "dir", cfg.DBDir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, ds)
	if err != nil {
		logger.Warn("failed to save run", "error", err)
		return
	}
	logger.Info("run saved", "id", id, "dir", cfg.DBDir)
}

// loadSiteConfigs loads the optional .trawl config file. An explicitly
// given path must exist; otherwise a missing file means empty config.
func loadSiteConfigs(cfg *config.Config, configPath string) error {
	found := config.FindConfigFile(configPath)
	if found == "" {
		if configPath != "" {
			return fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil
	}

	sites, err := config.LoadConfigFile(found)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	cfg.Sites = sites
	return nil
}
