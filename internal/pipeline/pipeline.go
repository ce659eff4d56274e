package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/geocheck/internal/analysis"
	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/gate"
	"github.com/roach88/geocheck/internal/report"
	"github.com/roach88/geocheck/internal/store"
)

// Options configures a validation run.
type Options struct {
	Sources    dataset.Sources
	Thresholds gate.Config

	// SmallComponentMax bounds the anomaly list of small components.
	// Zero selects analysis.DefaultSmallComponentMax.
	SmallComponentMax int

	// ReportPath receives the report. Empty means the report is only
	// returned in Result.Data.
	ReportPath string

	// FixedPath receives the repaired adjacency when
	// Thresholds.AutofixSymmetry is set. Empty means it is not written.
	FixedPath string

	// Timings adds per-phase durations to the report.
	Timings bool

	// History, when non-nil, records the run.
	History *store.Store

	Clock Clock
	IDs   RunIDGenerator
}

// Result is the outcome of a run that got past loading.
type Result struct {
	Report *report.Report
	Data   []byte // encoded report, identical to the file at ReportPath
	Hash   string

	// Fixed is the repaired adjacency; nil unless autofix was requested.
	Fixed     *analysis.Repair
	FixedData []byte
	FixedHash string

	// Run is the history row, when History was set. Unchanged reports
	// whether the previous row carried the same report hash.
	Run       *store.Run
	Unchanged bool
}

// Run loads opts.Sources and executes the remaining stages.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	start := opts.Clock.Now()
	loaded, err := dataset.Load(ctx, opts.Sources)
	if err != nil {
		return nil, err
	}
	return execute(ctx, loaded, opts, start)
}

// Execute runs Analyze → Gate → Write → History over an already loaded
// dataset.
func Execute(ctx context.Context, loaded *dataset.Result, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	return execute(ctx, loaded, opts, opts.Clock.Now())
}

func withDefaults(opts Options) Options {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	return opts
}

func execute(ctx context.Context, loaded *dataset.Result, opts Options, start time.Time) (*Result, error) {
	timing := map[string]float64{}
	mark := start
	phase := func(name string) {
		now := opts.Clock.Now()
		timing[name] = millis(now.Sub(mark))
		mark = now
	}
	phase("load")

	metrics, err := analysis.Run(ctx, loaded.Snapshot, analysis.Options{
		SmallComponentMax: opts.SmallComponentMax,
		Repair:            opts.Thresholds.AutofixSymmetry,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	phase("analyze")
	for name, d := range metrics.Durations {
		timing["analyze."+name] = millis(d)
	}

	decision := gate.Evaluate(gate.Measurements{
		Clusters:          metrics.Clusters,
		AsymmetricEdges:   len(metrics.Symmetry.AsymmetricEdges),
		CoordsCoveragePct: metrics.CoordsCoverage,
		CrossClusterEdges: metrics.CrossClusterEdges,
		Components:        metrics.Components.Count,
	}, opts.Thresholds)
	phase("gate")

	res := &Result{Report: report.New(loaded, metrics, opts.Thresholds, decision)}

	if metrics.Repair != nil {
		if err := writeFixed(res, metrics.Repair, opts.FixedPath); err != nil {
			return nil, err
		}
	}

	if opts.Timings {
		timing["total"] = millis(opts.Clock.Now().Sub(start))
		res.Report.Timing = timing
	}

	res.Data, res.Hash, err = res.Report.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if opts.ReportPath != "" {
		if err := report.WriteFileAtomic(opts.ReportPath, res.Data); err != nil {
			return nil, err
		}
		slog.Debug("report written", "path", opts.ReportPath, "hash", res.Hash)
	}

	if opts.History != nil {
		if err := record(ctx, res, loaded, opts); err != nil {
			return nil, err
		}
	}

	slog.Info("validation complete",
		"ok", decision.OK,
		"failures", len(decision.Failures),
		"warnings", len(loaded.Warnings),
		"hash", res.Hash,
	)
	return res, nil
}

func writeFixed(res *Result, repair *analysis.Repair, path string) error {
	data, hash, err := report.Encode(report.DomainAdjacency, repair.Fixed)
	if err != nil {
		return fmt.Errorf("encode fixed adjacency: %w", err)
	}
	if path != "" {
		if err := report.WriteFileAtomic(path, data); err != nil {
			return err
		}
		slog.Info("repaired adjacency written", "path", path, "added_edges", repair.AddedEdgeCount)
	}
	res.Fixed = repair
	res.FixedData = data
	res.FixedHash = hash
	res.Report.Autofix.FixedSHA256 = hash
	return nil
}

func record(ctx context.Context, res *Result, loaded *dataset.Result, opts Options) error {
	prev, err := opts.History.LatestRun(ctx)
	switch {
	case err == nil:
		res.Unchanged = prev.ReportHash == res.Hash
		if res.Unchanged {
			slog.Info("report unchanged", "hash", res.Hash, "previous_run", prev.ID, "previous_seq", prev.Seq)
			break
		}
		seen, err := opts.History.CountRunsWithHash(ctx, res.Hash)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		if seen > 0 {
			slog.Info("report matches an earlier run", "hash", res.Hash, "runs", seen)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("history: %w", err)
	}

	run, err := opts.History.RecordRun(ctx, store.Run{
		ID:           opts.IDs.Generate(),
		ReportHash:   res.Hash,
		OK:           res.Report.OK,
		Failures:     res.Report.Failures,
		WarningCount: len(loaded.Warnings),
		CreatedAt:    opts.Clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	res.Run = &run
	return nil
}

// millis converts d to milliseconds with microsecond resolution.
func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
