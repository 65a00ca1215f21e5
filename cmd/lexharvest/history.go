package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lexharvest/internal/config"
	"lexharvest/internal/database"
	"lexharvest/internal/model"
)

// NewHistoryCmd creates the history command.
// This command inspects past extraction runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [base-url]",
		Short: "Inspect past extraction runs and diff vocabularies",
		Long: `History lists past extraction runs stored in the database and can diff
the vocabularies of the two most recent runs of an endpoint.

The diff shows names that appeared since the previous run and names that
disappeared, which is how dataset changes behind an endpoint are tracked
over time.

Examples:
  # List all extracted endpoints in the database
  lexharvest history --list-endpoints

  # List run history for an endpoint
  lexharvest history http://35.200.185.69:8000

  # Diff the two most recent runs
  lexharvest history --diff http://35.200.185.69:8000

  # Diff against a specific run by ID
  lexharvest history --diff --with-run-id 5 http://35.200.185.69:8000

  # Machine-readable diff
  lexharvest history --diff --json http://35.200.185.69:8000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-endpoints", "L", false,
		"List all endpoints with recorded runs")
	cmd.Flags().BoolP("diff", "d", false,
		"Diff the vocabularies of the two most recent runs")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Diff the latest run against a specific run by ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output results in JSON format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listEndpoints, err := cmd.Flags().GetBool("list-endpoints")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var baseURL string
	if !listEndpoints {
		if len(args) == 0 {
			return errors.New("base URL is required (use --list-endpoints to see available endpoints)")
		}
		baseURL = args[0]
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if listEndpoints {
		return listStoredEndpoints(ctx, cmd, db)
	}

	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	if diff {
		withRunID, err := cmd.Flags().GetInt64("with-run-id")
		if err != nil {
			return err
		}
		jsonOutput, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		return runDiff(ctx, cmd, db, baseURL, withRunID, jsonOutput)
	}

	return listRunHistory(ctx, cmd, db, baseURL)
}

// listStoredEndpoints lists all endpoints with recorded runs.
func listStoredEndpoints(ctx context.Context, cmd *cobra.Command, db *database.RunDB) error {
	endpoints, err := db.ListEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list endpoints: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(endpoints) == 0 {
		fmt.Fprintln(out, "No extracted endpoints found in the database.")
		fmt.Fprintln(out, "\nUse 'lexharvest extract <base-url>' to extract an endpoint.")
		return nil
	}

	fmt.Fprintf(out, "Extracted endpoints (%d):\n\n", len(endpoints))
	for _, endpoint := range endpoints {
		fmt.Fprintf(out, "  • %s\n", endpoint)
	}
	fmt.Fprintln(out, "\nUse 'lexharvest history <base-url>' to see run history for an endpoint.")

	return nil
}

// listRunHistory lists all runs recorded for an endpoint.
func listRunHistory(ctx context.Context, cmd *cobra.Command, db *database.RunDB, baseURL string) error {
	runs, err := db.RunHistoryWithMetadata(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintf(out, "No run history found for %s\n", baseURL)
		fmt.Fprintln(out, "\nUse 'lexharvest extract' to extract this endpoint.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", baseURL, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-9s  %-7s  %s\n",
		"ID", "Date", "Version", "Requests", "Names", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 68))

	for _, meta := range runs {
		status := "complete"
		if meta.Truncated {
			status = "truncated"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-8s  %-9d  %-7d  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Version,
			meta.RequestCount,
			meta.NameCount,
			status,
		)
	}

	fmt.Fprintln(out, "\nUse 'lexharvest history --diff <base-url>' to diff the latest two runs.")

	return nil
}

// DiffResult holds the vocabulary difference between two runs.
type DiffResult struct {
	// BaseURL is the endpoint the runs extracted.
	BaseURL string `json:"base_url"`

	// PreviousNames is the vocabulary size of the older run.
	PreviousNames int `json:"previous_names"`

	// CurrentNames is the vocabulary size of the newer run.
	CurrentNames int `json:"current_names"`

	// Added are names present in the newer run only.
	Added []string `json:"added"`

	// Removed are names present in the older run only.
	Removed []string `json:"removed"`
}

// runDiff diffs the latest run against the previous one (or a specific run).
func runDiff(ctx context.Context, cmd *cobra.Command, db *database.RunDB, baseURL string, withRunID int64, jsonOutput bool) error {
	runs, err := db.RunHistory(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}
	if len(runs) == 0 {
		return fmt.Errorf("no run history found for %s", baseURL)
	}

	current := runs[0]

	var previous *model.RunReport
	if withRunID > 0 {
		previous, err = db.GetRunByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previous == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		if previous.BaseURL != baseURL {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previous.BaseURL, baseURL)
		}
	} else {
		if len(runs) < 2 {
			return fmt.Errorf("at least 2 runs are required for a diff (found %d)", len(runs))
		}
		previous = runs[1]
	}

	added, removed := diffVocabularies(previous.Names, current.Names)
	result := DiffResult{
		BaseURL:       baseURL,
		PreviousNames: previous.NameCount(),
		CurrentNames:  current.NameCount(),
		Added:         added,
		Removed:       removed,
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printDiff(cmd, result)
	return nil
}

// diffVocabularies returns names only in current (added) and names only in
// previous (removed), both sorted.
func diffVocabularies(previous, current []string) (added, removed []string) {
	prevSet := make(map[string]bool, len(previous))
	for _, name := range previous {
		prevSet[name] = true
	}
	currSet := make(map[string]bool, len(current))
	for _, name := range current {
		currSet[name] = true
	}

	added = make([]string, 0)
	for name := range currSet {
		if !prevSet[name] {
			added = append(added, name)
		}
	}
	removed = make([]string, 0)
	for name := range prevSet {
		if !currSet[name] {
			removed = append(removed, name)
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// diffSampleSize caps how many names each diff section prints.
const diffSampleSize = 20

// printDiff writes a human-readable vocabulary diff.
func printDiff(cmd *cobra.Command, result DiffResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Vocabulary diff for %s\n\n", result.BaseURL)
	fmt.Fprintf(out, "Previous run: %d names\n", result.PreviousNames)
	fmt.Fprintf(out, "Current run:  %d names\n\n", result.CurrentNames)

	printDiffSection(out, "Added", result.Added)
	printDiffSection(out, "Removed", result.Removed)

	if len(result.Added) == 0 && len(result.Removed) == 0 {
		fmt.Fprintln(out, "No changes.")
	}
}

// printDiffSection prints one direction of the diff, truncated to the
// sample size.
func printDiffSection(out io.Writer, label string, names []string) {
	if len(names) == 0 {
		return
	}

	fmt.Fprintf(out, "%s (%d):\n", label, len(names))
	shown := names
	if len(shown) > diffSampleSize {
		shown = shown[:diffSampleSize]
	}
	for _, name := range shown {
		fmt.Fprintf(out, "  %s\n", name)
	}
	if len(names) > diffSampleSize {
		fmt.Fprintf(out, "  ... and %d more\n", len(names)-diffSampleSize)
	}
	fmt.Fprintln(out)
}
