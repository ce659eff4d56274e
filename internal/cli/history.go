package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/geocheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryRun is one row of history output.
type HistoryRun struct {
	Seq          int64    `json:"seq"`
	ID           string   `json:"id"`
	OK           bool     `json:"ok"`
	ReportHash   string   `json:"report_hash"`
	FailureCount int      `json:"failure_count"`
	WarningCount int      `json:"warning_count"`
	Failures     []string `json:"failures"`
	CreatedAt    string   `json:"created_at"`
	Unchanged    bool     `json:"unchanged"`
}

// HistoryResult holds the history listing.
type HistoryResult struct {
	Runs  []HistoryRun `json:"runs"`
	Total int          `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs",
		Long: `List validation runs recorded with validate --history, newest first.

A run is marked unchanged when its report hash equals that of the run
recorded just before it.

Exit codes:
  0 - Listing printed
  2 - Command error (database not found, etc.)

Examples:
  geocheck history --db runs.db
  geocheck history --db runs.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Database == "" {
		_ = formatter.Error(ErrCodeHistory, "--db is required", nil)
		return NewExitError(ExitCommandError, "--db is required")
	}
	if opts.Limit < 0 {
		_ = formatter.Error(ErrCodeHistory, "--limit must not be negative", nil)
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	// Opening creates a database; a history listing must not.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeHistory, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeHistory, fmt.Sprintf("failed to open database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// One extra row tells whether the oldest listed run repeated its
	// predecessor.
	fetch := opts.Limit
	if fetch > 0 {
		fetch++
	}
	runs, err := st.ListRuns(ctx, fetch)
	if err != nil {
		_ = formatter.Error(ErrCodeHistory, fmt.Sprintf("failed to list runs: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := HistoryResult{Runs: make([]HistoryRun, 0, len(runs))}
	for i, r := range runs {
		if opts.Limit > 0 && i == opts.Limit {
			break
		}
		result.Runs = append(result.Runs, HistoryRun{
			Seq:          r.Seq,
			ID:           r.ID,
			OK:           r.OK,
			ReportHash:   r.ReportHash,
			FailureCount: r.FailureCount,
			WarningCount: r.WarningCount,
			Failures:     r.Failures,
			CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339Nano),
			Unchanged:    i+1 < len(runs) && runs[i+1].ReportHash == r.ReportHash,
		})
	}
	result.Total = len(result.Runs)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputHistoryText(cmd, result)
}

func outputHistoryText(cmd *cobra.Command, result HistoryResult) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	for _, r := range result.Runs {
		status := "✓"
		if !r.OK {
			status = "✗"
		}
		note := ""
		if r.Unchanged {
			note = " (unchanged)"
		}
		fmt.Fprintf(w, "%s #%d %s %s %s%s\n", status, r.Seq, r.CreatedAt, shortHash(r.ReportHash), r.ID, note)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "    - %s\n", f)
		}
		if r.WarningCount > 0 {
			fmt.Fprintf(w, "    %d warning(s)\n", r.WarningCount)
		}
	}
	fmt.Fprintf(w, "\n%d run(s)\n", result.Total)
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
