package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/gate"
	"github.com/roach88/geocheck/internal/pipeline"
	"github.com/roach88/geocheck/internal/store"
	"github.com/roach88/geocheck/internal/testutil"
)

// Harness holds the deterministic collaborators of one scenario run.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    *pipeline.FixedGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory history store.
//
// Execution flow:
// 1. Encode the dataset and thresholds
// 2. Parse the dataset and run the pipeline, Repeat times
// 3. Check every repeat reproduced the first report
// 4. Evaluate assertions against the first report
//
// An error is returned only when the scenario cannot be executed at all:
// bad thresholds, a fatal load error, or a store failure.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	repeat := max(scenario.Repeat, 1)
	ids := make([]string, repeat)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-run-%03d", scenario.Name, i+1)
	}

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		ids:    pipeline.NewFixedGenerator(ids...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario, repeat)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario, repeat int) (*Result, error) {
	inputs, err := scenario.Dataset.Inputs()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: dataset: %w", scenario.Name, err)
	}
	cfg, err := thresholds(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	for i := 0; i < repeat; i++ {
		loaded, err := dataset.Parse(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}

		res, err := pipeline.Execute(ctx, loaded, pipeline.Options{
			Thresholds:        cfg,
			SmallComponentMax: scenario.SmallComponentMax,
			History:           h.store,
			Clock:             h.clock,
			IDs:               h.ids,
		})
		if err != nil {
			return nil, fmt.Errorf("scenario %s: run %d: %w", scenario.Name, i+1, err)
		}
		result.Runs++
		h.logger.Debug("scenario run", "scenario", scenario.Name, "run", i+1, "hash", res.Hash, "ok", res.Report.OK)

		if i == 0 {
			result.Report = res.Report
			result.Data = res.Data
			result.Hash = res.Hash
			continue
		}
		if res.Hash != result.Hash {
			result.AddError(fmt.Sprintf("run %d: report hash %s differs from first run %s", i+1, res.Hash, result.Hash))
		}
		if !res.Unchanged {
			result.AddError(fmt.Sprintf("run %d: history did not recognise the report as unchanged", i+1))
		}
	}

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return result, nil
}

// thresholds overlays the scenario's thresholds onto the defaults through
// the threshold-file parser, so scenarios are held to the same schema.
func thresholds(scenario *Scenario) (gate.Config, error) {
	cfg := gate.Defaults()
	if len(scenario.Thresholds) == 0 {
		return cfg, nil
	}
	data, err := yaml.Marshal(scenario.Thresholds)
	if err != nil {
		return cfg, fmt.Errorf("thresholds: %w", err)
	}
	return gate.ParseFile(scenario.Name+".thresholds.yaml", data, cfg)
}
