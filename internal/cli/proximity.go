package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/proximity"
	"github.com/roach88/geocheck/internal/report"
)

// ProximityOptions holds flags for the proximity command.
type ProximityOptions struct {
	*RootOptions
	Areas     string
	Clusters  string
	Adjacency string
	K         int
	Workers   int
	Out       string
}

// ProximityResult is the JSON payload of a proximity run.
type ProximityResult struct {
	Entries int    `json:"entries"`
	K       int    `json:"k"`
	Path    string `json:"path,omitempty"`
	Hash    string `json:"hash"`

	// Graph is the proximity graph, inlined when no --out path was given.
	Graph json.RawMessage `json:"graph,omitempty"`
}

// NewProximityCommand creates the proximity command.
func NewProximityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProximityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "proximity",
		Short: "Build a k-nearest-neighbour graph from area coordinates",
		Long: `Compute, for every area with coordinates, its k nearest neighbours by
great-circle (Haversine) distance.

Only --areas is needed. Clusters and adjacency may be given together so
the same snapshot and warnings as validate are used.

Output is a canonical JSON array sorted by area key, written to --out or
to stdout.

Examples:
  geocheck proximity --areas areas.json --k 8
  geocheck proximity --areas a.json --clusters c.json --adjacency adj.json --out proximity.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProximity(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Areas, "areas", "", "path to areas JSON (required)")
	cmd.Flags().StringVar(&opts.Clusters, "clusters", "", "path to clusters JSON (optional, with --adjacency)")
	cmd.Flags().StringVar(&opts.Adjacency, "adjacency", "", "path to adjacency JSON (optional, with --clusters)")
	cmd.Flags().IntVar(&opts.K, "k", proximity.DefaultK, "neighbours per area")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel workers (default GOMAXPROCS)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the proximity graph to this path")

	return cmd
}

func runProximity(opts *ProximityOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.K <= 0 {
		return formatter.Fail(ExitCommandError, "invalid flags",
			fmt.Errorf("--k must be positive, got %d", opts.K))
	}
	if (opts.Clusters == "") != (opts.Adjacency == "") {
		return formatter.Fail(ExitCommandError, "invalid flags",
			fmt.Errorf("--clusters and --adjacency must be given together"))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		loaded *dataset.Result
		err    error
	)
	if opts.Clusters != "" {
		loaded, err = dataset.Load(ctx, dataset.Sources{
			AreasPath:     opts.Areas,
			ClustersPath:  opts.Clusters,
			AdjacencyPath: opts.Adjacency,
		})
	} else {
		loaded, err = dataset.LoadAreas(ctx, opts.Areas)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load dataset", err)
	}
	formatter.VerboseLog("Loaded %d area(s), %d warning(s)", len(loaded.Snapshot.Areas), len(loaded.Warnings))

	entries, err := proximity.Build(ctx, loaded.Snapshot.Areas, proximity.Options{K: opts.K, Workers: opts.Workers})
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to build proximity graph", err)
	}

	if opts.Out == "" {
		data, hash, err := report.Encode(report.DomainProximity, entries)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode proximity graph", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(ProximityResult{
				Entries: len(entries),
				K:       opts.K,
				Hash:    hash,
				Graph:   json.RawMessage(data),
			})
		}
		if _, err := formatter.Writer.Write(data); err != nil {
			return WrapExitError(ExitCommandError, "failed to write proximity graph", err)
		}
		return nil
	}

	hash, err := report.Write(opts.Out, report.DomainProximity, entries)
	if err != nil {
		_ = formatter.Error(ErrCodeOutput, fmt.Sprintf("failed to write %s: %v", opts.Out, err), nil)
		return WrapExitError(ExitCommandError, "failed to write proximity graph", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ProximityResult{Entries: len(entries), K: opts.K, Path: opts.Out, Hash: hash})
	}
	return formatter.Success(fmt.Sprintf("✓ Wrote %d proximity entries (k=%d) to %s\n  hash: %s", len(entries), opts.K, opts.Out, hash))
}
