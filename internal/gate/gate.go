package gate

import "fmt"

// Measurements are the metrics the gate rules read.
type Measurements struct {
	Clusters          int
	AsymmetricEdges   int
	CoordsCoveragePct float64
	CrossClusterEdges int
	Components        int
}

// Rule identifiers, used as the prefix of each failure message.
const (
	RuleMinClusters          = "minClusters"
	RuleRequireSymmetry      = "requireSymmetry"
	RuleMinCoordsPct         = "minCoordsPct"
	RuleMaxCrossClusterEdges = "maxCrossClusterEdges"
	RuleMaxComponents        = "maxComponents"
)

// Decision is the outcome of a gate evaluation.
// OK is true exactly when Failures is empty.
type Decision struct {
	OK       bool     `json:"ok"`
	Failures []string `json:"failures"`
}

// Evaluate applies every rule in cfg to m and collects all violations.
// Failures are listed in a fixed rule order; the slice is never nil.
func Evaluate(m Measurements, cfg Config) Decision {
	failures := []string{}

	if m.Clusters < cfg.MinClusters {
		failures = append(failures, fmt.Sprintf("%s: %d cluster(s), need at least %d",
			RuleMinClusters, m.Clusters, cfg.MinClusters))
	}
	if cfg.RequireSymmetry && m.AsymmetricEdges > 0 {
		failures = append(failures, fmt.Sprintf("%s: %d asymmetric edge(s)",
			RuleRequireSymmetry, m.AsymmetricEdges))
	}
	if m.CoordsCoveragePct < cfg.MinCoordsPct {
		failures = append(failures, fmt.Sprintf("%s: %.2f%% of areas have coordinates, need at least %.2f%%",
			RuleMinCoordsPct, m.CoordsCoveragePct, cfg.MinCoordsPct))
	}
	if cfg.MaxCrossClusterEdges.Exceeded(m.CrossClusterEdges) {
		failures = append(failures, fmt.Sprintf("%s: %d cross-cluster edge(s), allowed at most %s",
			RuleMaxCrossClusterEdges, m.CrossClusterEdges, cfg.MaxCrossClusterEdges))
	}
	if cfg.MaxComponents.Exceeded(m.Components) {
		failures = append(failures, fmt.Sprintf("%s: %d connected component(s), allowed at most %s",
			RuleMaxComponents, m.Components, cfg.MaxComponents))
	}

	return Decision{OK: len(failures) == 0, Failures: failures}
}
