package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evangoldenberg/trawl/internal/config"
	"github.com/evangoldenberg/trawl/internal/database"
	"github.com/evangoldenberg/trawl/internal/model"
)

// NewCompareCmd creates the compare command.
// This command inspects runs stored with the --db flag and shows how a
// source's data changed between collections.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [source]",
		Short: "Compare stored collection runs",
		Long: `Compare shows the differences between the two most recent stored runs
of a source: records that appeared, records that vanished, and records
whose field values changed.

Runs are stored when collecting with the --db flag; the source argument
is the run's source string exactly as listed by --list (the index URL
for crawls, "jql: <query>" for REST collections).

Examples:
  # List all stored runs
  trawl compare --list

  # List stored runs for one source
  trawl compare --list https://issues.apache.org/jira/projects/CAMEL/issues

  # Diff the latest two runs of a source
  trawl compare https://issues.apache.org/jira/projects/CAMEL/issues

  # Diff the latest run against a specific earlier run by ID
  trawl compare --with-run-id 3 "jql: project = CAMEL"

  # Output the diff as JSON
  trawl compare --json "jql: project = CAMEL"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored runs instead of comparing")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with a specific run by ID (use --list to see IDs)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison in JSON format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	var source string
	if len(args) > 0 {
		source = args[0]
	}
	if !list && source == "" {
		return errors.New("a source is required (use --list to see stored runs)")
	}

	// The database lives in the XDG data directory, where collection
	// commands put it. Compare never creates it: no stored runs means
	// there is nothing to compare.
	db, err := database.Open(config.XDGDataDir(), database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open run database (collect with --db first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if list {
		return listRunHistory(ctx, cmd.OutOrStdout(), db, source)
	}
	return runComparison(ctx, cmd.OutOrStdout(), db, source, withRunID, jsonOutput)
}

// listRunHistory prints stored run metadata, newest first, optionally
// filtered to one source.
func listRunHistory(ctx context.Context, w io.Writer, db *database.RunDB, source string) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if source != "" {
		filtered := runs[:0]
		for _, meta := range runs {
			if meta.Source == source {
				filtered = append(filtered, meta)
			}
		}
		runs = filtered
	}

	if len(runs) == 0 {
		if source != "" {
			fmt.Fprintf(w, "No stored runs found for %s\n", source)
		} else {
			fmt.Fprintln(w, "No stored runs found.")
		}
		fmt.Fprintln(w, "\nUse the --db flag on 'trawl crawl' or 'trawl jira' to store runs.")
		return nil
	}

	fmt.Fprintf(w, "Stored runs (%d):\n\n", len(runs))
	fmt.Fprintf(w, "  %-6s  %-20s  %-8s  %-8s  %s\n", "ID", "Started", "Records", "Skipped", "Source")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))
	for _, meta := range runs {
		fmt.Fprintf(w, "  %-6d  %-20s  %-8d  %-8d  %s\n",
			meta.ID,
			meta.Started.Format("2006-01-02 15:04:05"),
			meta.RecordCount,
			meta.Skipped,
			meta.Source,
		)
	}
	fmt.Fprintln(w, "\nUse 'trawl compare <source>' to diff the latest two runs of a source.")

	return nil
}

// runComparison diffs the latest stored run of a source against the
// previous one, or against a specific run when withRunID is set.
func runComparison(ctx context.Context, w io.Writer, db *database.RunDB, source string, withRunID int64, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	// Runs come back newest first.
	var sourceRuns []database.RunMetadata
	for _, meta := range runs {
		if meta.Source == source {
			sourceRuns = append(sourceRuns, meta)
		}
	}
	if len(sourceRuns) == 0 {
		return fmt.Errorf("no stored runs found for %s", source)
	}

	current, err := db.LatestRun(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load latest run: %w", err)
	}
	if current == nil {
		return fmt.Errorf("no stored runs found for %s", source)
	}

	var previousMeta database.RunMetadata
	if withRunID > 0 {
		found := false
		for _, meta := range runs {
			if meta.ID == withRunID {
				previousMeta = meta
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		if previousMeta.Source != source {
			return fmt.Errorf("run %d belongs to %q, not %q", withRunID, previousMeta.Source, source)
		}
	} else {
		if len(sourceRuns) < 2 {
			return fmt.Errorf("at least 2 stored runs are required for comparison (found %d)", len(sourceRuns))
		}
		previousMeta = sourceRuns[1]
	}

	previous, err := db.GetRun(ctx, previousMeta.ID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", previousMeta.ID, err)
	}
	if previous == nil {
		return fmt.Errorf("run with ID %d not found", previousMeta.ID)
	}

	result := compareRuns(source, runSummary(previousMeta), runSummary(sourceRuns[0]), previous, current)

	if jsonOutput {
		return outputComparisonJSON(w, result)
	}
	return outputComparisonText(w, result)
}

// RunSummary describes one side of a run comparison.
type RunSummary struct {
	// ID is the run's identifier in the database.
	ID int64 `json:"id"`

	// Started is when the run began collecting.
	Started time.Time `json:"started"`

	// RecordCount is the number of records the run produced.
	RecordCount int `json:"record_count"`

	// Skipped counts references dropped with transport errors.
	Skipped int `json:"skipped"`
}

// FieldChange records one field whose value differs between runs.
type FieldChange struct {
	// Field is the record field name.
	Field string `json:"field"`

	// Previous is the field value in the earlier run.
	Previous string `json:"previous"`

	// Current is the field value in the later run.
	Current string `json:"current"`
}

// RecordDiff lists the changed fields of one record.
type RecordDiff struct {
	// Ref is the record reference, e.g. an issue key.
	Ref string `json:"ref"`

	// Changes holds the per-field differences.
	Changes []FieldChange `json:"changes"`
}

// ComparisonResult holds the differences between two stored runs of the
// same source.
type ComparisonResult struct {
	// Source is the compared source string.
	Source string `json:"source"`

	// PreviousRun summarizes the earlier run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun summarizes the later run.
	CurrentRun RunSummary `json:"current_run"`

	// AddedRefs lists records present only in the current run.
	AddedRefs []string `json:"added_refs,omitempty"`

	// RemovedRefs lists records present only in the previous run.
	RemovedRefs []string `json:"removed_refs,omitempty"`

	// ChangedRecords lists records whose field values differ.
	ChangedRecords []RecordDiff `json:"changed_records,omitempty"`

	// UnchangedCount is the number of records identical in both runs.
	UnchangedCount int `json:"unchanged_count"`
}

// runSummary converts stored run metadata for comparison display.
func runSummary(meta database.RunMetadata) RunSummary {
	return RunSummary{
		ID:          meta.ID,
		Started:     meta.Started,
		RecordCount: meta.RecordCount,
		Skipped:     meta.Skipped,
	}
}

// compareRuns diffs two datasets record by record. Records keep their
// discovery order, so added/removed/changed lists come out in the
// order the runs produced them.
func compareRuns(source string, previousRun, currentRun RunSummary, previous, current *model.Dataset) *ComparisonResult {
	result := &ComparisonResult{
		Source:      source,
		PreviousRun: previousRun,
		CurrentRun:  currentRun,
	}

	previousByRef := make(map[string]*model.Record, previous.Len())
	for _, rec := range previous.Records {
		previousByRef[rec.Ref] = rec
	}
	currentByRef := make(map[string]*model.Record, current.Len())
	for _, rec := range current.Records {
		currentByRef[rec.Ref] = rec
	}

	for _, rec := range current.Records {
		prev, ok := previousByRef[rec.Ref]
		if !ok {
			result.AddedRefs = append(result.AddedRefs, rec.Ref)
			continue
		}
		changes := diffFields(prev, rec)
		if len(changes) == 0 {
			result.UnchangedCount++
			continue
		}
		result.ChangedRecords = append(result.ChangedRecords, RecordDiff{
			Ref:     rec.Ref,
			Changes: changes,
		})
	}

	for _, rec := range previous.Records {
		if _, ok := currentByRef[rec.Ref]; !ok {
			result.RemovedRefs = append(result.RemovedRefs, rec.Ref)
		}
	}

	return result
}

// diffFields compares the fields of two records with the same ref and
// returns the differing ones sorted by field name. An absent field
// compares as the empty string.
func diffFields(previous, current *model.Record) []FieldChange {
	names := make(map[string]struct{}, len(previous.Fields)+len(current.Fields))
	for name := range previous.Fields {
		names[name] = struct{}{}
	}
	for name := range current.Fields {
		names[name] = struct{}{}
	}

	var changes []FieldChange
	for name := range names {
		before := previous.Get(name)
		after := current.Get(name)
		if before != after {
			changes = append(changes, FieldChange{Field: name, Previous: before, Current: after})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })

	return changes
}

// outputComparisonJSON writes the comparison result as indented JSON.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText writes the comparison result as readable text.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "Run comparison: %s\n", result.Source)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nPrevious run: #%d  %s  (%d records, %d skipped)\n",
		result.PreviousRun.ID,
		result.PreviousRun.Started.Format("2006-01-02 15:04:05"),
		result.PreviousRun.RecordCount,
		result.PreviousRun.Skipped,
	)
	fmt.Fprintf(w, "Current run:  #%d  %s  (%d records, %d skipped)\n",
		result.CurrentRun.ID,
		result.CurrentRun.Started.Format("2006-01-02 15:04:05"),
		result.CurrentRun.RecordCount,
		result.CurrentRun.Skipped,
	)

	if len(result.AddedRefs) > 0 {
		fmt.Fprintf(w, "\nAdded (%d):\n", len(result.AddedRefs))
		for _, ref := range result.AddedRefs {
			fmt.Fprintf(w, "  [+] %s\n", ref)
		}
	}

	if len(result.RemovedRefs) > 0 {
		fmt.Fprintf(w, "\nRemoved (%d):\n", len(result.RemovedRefs))
		for _, ref := range result.RemovedRefs {
			fmt.Fprintf(w, "  [-] %s\n", ref)
		}
	}

	if len(result.ChangedRecords) > 0 {
		fmt.Fprintf(w, "\nChanged (%d):\n", len(result.ChangedRecords))
		for _, diff := range result.ChangedRecords {
			fmt.Fprintf(w, "  [~] %s\n", diff.Ref)
			for _, change := range diff.Changes {
				fmt.Fprintf(w, "      %s: %q -> %q\n", change.Field, change.Previous, change.Current)
			}
		}
	}

	if len(result.AddedRefs) == 0 && len(result.RemovedRefs) == 0 && len(result.ChangedRecords) == 0 {
		fmt.Fprintln(w, "\nNo differences found.")
	}

	fmt.Fprintf(w, "\nUnchanged: %d records\n", result.UnchangedCount)

	return nil
}
