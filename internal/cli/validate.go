package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/gate"
	"github.com/roach88/geocheck/internal/pipeline"
	"github.com/roach88/geocheck/internal/store"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Areas     string
	Clusters  string
	Adjacency string

	Out      string
	FixedOut string
	Config   string
	History  string
	Timings  bool

	SmallComponentMax int

	// Threshold flags. They only override the file and environment when
	// set explicitly on the command line.
	Autofix              bool
	MinClusters          int
	RequireSymmetry      bool
	MinCoordsPct         float64
	MaxCrossClusterEdges string
	MaxComponents        string

	// LookupEnv reads threshold overrides (for testing).
	// If nil, defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Clock and IDs override the pipeline's time source and run-ID
	// generator (for testing). If nil, the system clock and UUIDv7 are used.
	Clock pipeline.Clock
	IDs   pipeline.RunIDGenerator
}

// ValidateResult is the JSON payload of a validate run.
type ValidateResult struct {
	OK         bool     `json:"ok"`
	Failures   []string `json:"failures"`
	Warnings   int      `json:"warnings"`
	Hash       string   `json:"hash"`
	ReportPath string   `json:"report_path,omitempty"`

	// Report is the full report, inlined when no --out path was given.
	Report json.RawMessage `json:"report,omitempty"`

	AddedEdges *int   `json:"added_edges,omitempty"`
	FixedPath  string `json:"fixed_path,omitempty"`

	RunID     string `json:"run_id,omitempty"`
	RunSeq    int64  `json:"run_seq,omitempty"`
	Unchanged bool   `json:"unchanged,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a dataset against integrity thresholds",
		Long: `Load areas, clusters and adjacency, compute integrity metrics and
evaluate them against thresholds.

Thresholds come from built-in defaults, then --config (YAML or CUE), then
GEOCHECK_* environment variables, then threshold flags. The report is
written to --out, or to stdout when --out is not given.

Exit codes:
  0 - All thresholds met
  1 - One or more thresholds violated (the report is still written)
  2 - Command error (unreadable input, bad config, etc.)

Examples:
  geocheck validate --areas areas.json --clusters clusters.json --adjacency adjacency.json
  geocheck validate --areas a.json --clusters c.json --adjacency adj.json --out report.json
  geocheck validate ... --config thresholds.yaml --autofix --fixed-out adjacency.fixed.json
  geocheck validate ... --history runs.db --timings`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Areas, "areas", "", "path to areas JSON (required)")
	cmd.Flags().StringVar(&opts.Clusters, "clusters", "", "path to clusters JSON (required)")
	cmd.Flags().StringVar(&opts.Adjacency, "adjacency", "", "path to adjacency JSON (required)")

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the report to this path")
	cmd.Flags().StringVar(&opts.FixedOut, "fixed-out", "", "write the repaired adjacency to this path (requires autofix)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "threshold file (.yaml, .yml, .json or .cue)")
	cmd.Flags().StringVar(&opts.History, "history", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Timings, "timings", false, "add per-phase durations to the report")
	cmd.Flags().IntVar(&opts.SmallComponentMax, "small-component-max", 0, "largest component size listed as an anomaly (default 20)")

	cmd.Flags().BoolVar(&opts.Autofix, "autofix", false, "repair asymmetric adjacency into a new artifact")
	cmd.Flags().IntVar(&opts.MinClusters, "min-clusters", 1, "minimum number of clusters")
	cmd.Flags().BoolVar(&opts.RequireSymmetry, "require-symmetry", false, "fail on any asymmetric edge")
	cmd.Flags().Float64Var(&opts.MinCoordsPct, "min-coords-pct", 0, "minimum percentage of areas with coordinates")
	cmd.Flags().StringVar(&opts.MaxCrossClusterEdges, "max-cross-cluster-edges", gate.InfinityLiteral, "maximum cross-cluster edges")
	cmd.Flags().StringVar(&opts.MaxComponents, "max-components", gate.InfinityLiteral, "maximum connected components")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := resolveThresholds(opts, cmd.Flags().Changed)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid thresholds", err)
	}
	if opts.SmallComponentMax < 0 {
		return formatter.Fail(ExitCommandError, "invalid flags",
			&gate.ConfigError{Source: "--small-component-max", Message: "must not be negative"})
	}
	formatter.VerboseLog("Thresholds: minClusters=%d requireSymmetry=%t minCoordsPct=%g maxCrossClusterEdges=%s maxComponents=%s autofix=%t",
		cfg.MinClusters, cfg.RequireSymmetry, cfg.MinCoordsPct, cfg.MaxCrossClusterEdges, cfg.MaxComponents, cfg.AutofixSymmetry)

	var history *store.Store
	if opts.History != "" {
		history, err = store.Open(opts.History)
		if err != nil {
			_ = formatter.Error(ErrCodeHistory, fmt.Sprintf("failed to open history: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to open history", err)
		}
		defer history.Close()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := pipeline.Run(ctx, pipeline.Options{
		Sources: dataset.Sources{
			AreasPath:     opts.Areas,
			ClustersPath:  opts.Clusters,
			AdjacencyPath: opts.Adjacency,
		},
		Thresholds:        cfg,
		SmallComponentMax: opts.SmallComponentMax,
		ReportPath:        opts.Out,
		FixedPath:         opts.FixedOut,
		Timings:           opts.Timings,
		History:           history,
		Clock:             opts.Clock,
		IDs:               opts.IDs,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, "validation aborted", err)
	}

	if err := outputValidateResult(formatter, opts, res); err != nil {
		return err
	}

	if !res.Report.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %d threshold(s) violated", len(res.Report.Failures)))
	}
	return nil
}

// resolveThresholds layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func resolveThresholds(opts *ValidateOptions, changed func(string) bool) (gate.Config, error) {
	cfg := gate.Defaults()

	var err error
	if opts.Config != "" {
		cfg, err = gate.LoadFile(opts.Config, cfg)
		if err != nil {
			return cfg, err
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg, err = gate.ApplyEnv(cfg, lookup)
	if err != nil {
		return cfg, err
	}

	if changed("min-clusters") {
		if opts.MinClusters < 0 {
			return cfg, &gate.ConfigError{Source: "--min-clusters", Message: "must not be negative"}
		}
		cfg.MinClusters = opts.MinClusters
	}
	if changed("require-symmetry") {
		cfg.RequireSymmetry = opts.RequireSymmetry
	}
	if changed("min-coords-pct") {
		if math.IsNaN(opts.MinCoordsPct) || opts.MinCoordsPct < 0 || opts.MinCoordsPct > 100 {
			return cfg, &gate.ConfigError{Source: "--min-coords-pct", Message: "must be between 0 and 100"}
		}
		cfg.MinCoordsPct = opts.MinCoordsPct
	}
	if changed("max-cross-cluster-edges") {
		l, err := gate.ParseLimit(opts.MaxCrossClusterEdges)
		if err != nil {
			return cfg, &gate.ConfigError{Source: "--max-cross-cluster-edges", Message: err.Error(), Err: err}
		}
		cfg.MaxCrossClusterEdges = l
	}
	if changed("max-components") {
		l, err := gate.ParseLimit(opts.MaxComponents)
		if err != nil {
			return cfg, &gate.ConfigError{Source: "--max-components", Message: err.Error(), Err: err}
		}
		cfg.MaxComponents = l
	}
	if changed("autofix") {
		cfg.AutofixSymmetry = opts.Autofix
	}

	if opts.FixedOut != "" && !cfg.AutofixSymmetry {
		return cfg, &gate.ConfigError{Source: "--fixed-out", Message: "requires --autofix or autofixSymmetry"}
	}
	return cfg, nil
}

func outputValidateResult(formatter *OutputFormatter, opts *ValidateOptions, res *pipeline.Result) error {
	r := res.Report

	if formatter.Format == "json" {
		result := ValidateResult{
			OK:         r.OK,
			Failures:   r.Failures,
			Warnings:   len(r.Warnings),
			Hash:       res.Hash,
			ReportPath: opts.Out,
		}
		if opts.Out == "" {
			result.Report = json.RawMessage(res.Data)
		}
		if r.Autofix != nil {
			added := r.Autofix.AddedEdgeCount
			result.AddedEdges = &added
			result.FixedPath = opts.FixedOut
		}
		if res.Run != nil {
			result.RunID = res.Run.ID
			result.RunSeq = res.Run.Seq
			result.Unchanged = res.Unchanged
		}
		if r.OK {
			return formatter.Success(result)
		}
		return formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeGate,
				Message: fmt.Sprintf("%d threshold(s) violated", len(r.Failures)),
				Details: r.Failures,
			},
		})
	}

	// Without --out the report itself is the output; the summary moves to
	// stderr so stdout stays machine-readable.
	summary := formatter.Writer
	if opts.Out == "" {
		if _, err := formatter.Writer.Write(res.Data); err != nil {
			return WrapExitError(ExitCommandError, "failed to write report", err)
		}
		summary = formatter.GetErrWriter()
	}
	writeValidateSummary(summary, opts, res)
	return nil
}

func writeValidateSummary(w io.Writer, opts *ValidateOptions, res *pipeline.Result) {
	r := res.Report

	if r.OK {
		fmt.Fprintln(w, "✓ Validation passed")
	} else {
		fmt.Fprintf(w, "✗ Validation failed (%d threshold(s) violated)\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	fmt.Fprintf(w, "  areas: %d, clusters: %d, components: %d, warnings: %d\n",
		r.Metrics.Areas, r.Metrics.Clusters, r.Metrics.Components.Count, len(r.Warnings))
	if opts.Out != "" {
		fmt.Fprintf(w, "  report: %s\n", opts.Out)
	}
	fmt.Fprintf(w, "  hash: %s\n", res.Hash)

	if r.Autofix != nil {
		dest := opts.FixedOut
		if dest == "" {
			dest = "(not written)"
		}
		fmt.Fprintf(w, "  autofix: %d edge(s) added, %s\n", r.Autofix.AddedEdgeCount, dest)
	}
	if res.Run != nil {
		state := "changed"
		if res.Unchanged {
			state = "unchanged"
		}
		fmt.Fprintf(w, "  history: run #%d %s (%s)\n", res.Run.Seq, res.Run.ID, state)
	}
}
