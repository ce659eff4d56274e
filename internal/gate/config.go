package gate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Environment variables consulted by ApplyEnv.
const (
	EnvMinClusters          = "GEOCHECK_MIN_CLUSTERS"
	EnvRequireSymmetry      = "GEOCHECK_REQUIRE_SYMMETRY"
	EnvMinCoordsPct         = "GEOCHECK_MIN_COORDS_PCT"
	EnvMaxCrossClusterEdges = "GEOCHECK_MAX_CROSS_CLUSTER_EDGES"
	EnvMaxComponents        = "GEOCHECK_MAX_COMPONENTS"
	EnvAutofixSymmetry      = "GEOCHECK_AUTOFIX_SYMMETRY"
)

// Config holds the thresholds a run is gated on.
type Config struct {
	MinClusters          int     `json:"minClusters" yaml:"minClusters"`
	RequireSymmetry      bool    `json:"requireSymmetry" yaml:"requireSymmetry"`
	MinCoordsPct         float64 `json:"minCoordsPct" yaml:"minCoordsPct"`
	MaxCrossClusterEdges Limit   `json:"maxCrossClusterEdges" yaml:"maxCrossClusterEdges"`
	MaxComponents        Limit   `json:"maxComponents" yaml:"maxComponents"`
	AutofixSymmetry      bool    `json:"autofixSymmetry" yaml:"autofixSymmetry"`
}

// Defaults returns the thresholds used when nothing is configured.
// Only an empty cluster forest fails under them.
func Defaults() Config {
	return Config{
		MinClusters:          1,
		MaxCrossClusterEdges: Unbounded,
		MaxComponents:        Unbounded,
	}
}

// ConfigError reports an invalid threshold value or file.
type ConfigError struct {
	Source  string // file path or environment variable name
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Source, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// fileConfig mirrors Config with every field optional.
type fileConfig struct {
	MinClusters          *int     `json:"minClusters"`
	RequireSymmetry      *bool    `json:"requireSymmetry"`
	MinCoordsPct         *float64 `json:"minCoordsPct"`
	MaxCrossClusterEdges *Limit   `json:"maxCrossClusterEdges"`
	MaxComponents        *Limit   `json:"maxComponents"`
	AutofixSymmetry      *bool    `json:"autofixSymmetry"`
}

func (f fileConfig) applyTo(cfg Config) Config {
	if f.MinClusters != nil {
		cfg.MinClusters = *f.MinClusters
	}
	if f.RequireSymmetry != nil {
		cfg.RequireSymmetry = *f.RequireSymmetry
	}
	if f.MinCoordsPct != nil {
		cfg.MinCoordsPct = *f.MinCoordsPct
	}
	if f.MaxCrossClusterEdges != nil {
		cfg.MaxCrossClusterEdges = *f.MaxCrossClusterEdges
	}
	if f.MaxComponents != nil {
		cfg.MaxComponents = *f.MaxComponents
	}
	if f.AutofixSymmetry != nil {
		cfg.AutofixSymmetry = *f.AutofixSymmetry
	}
	return cfg
}

// LoadFile overlays the thresholds in path onto base.
//
// Files ending in .cue are evaluated as CUE; anything else is read as YAML
// (which includes JSON). Both are checked against the same schema, so a
// typo in a field name is an error rather than a silently ignored key.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, &ConfigError{Source: path, Message: "cannot read file", Err: err}
	}
	return ParseFile(path, data, base)
}

// ParseFile is LoadFile over already-read bytes. The name selects the
// format and labels errors.
func ParseFile(name string, data []byte, base Config) (Config, error) {
	ctx := cuecontext.New()

	var v cue.Value
	if strings.EqualFold(filepath.Ext(name), ".cue") {
		v = ctx.CompileBytes(data, cue.Filename(name))
	} else {
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return base, &ConfigError{Source: name, Message: "malformed YAML", Err: err}
		}
		if doc == nil {
			doc = map[string]any{}
		}
		v = ctx.Encode(normalizeYAML(doc))
	}
	if err := v.Err(); err != nil {
		return base, &ConfigError{Source: name, Message: cueerrors.Details(err, nil), Err: err}
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return base, fmt.Errorf("threshold schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Thresholds")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return base, &ConfigError{Source: name, Message: strings.TrimSpace(cueerrors.Details(err, nil)), Err: err}
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return base, &ConfigError{Source: name, Message: "cannot export thresholds", Err: err}
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return base, &ConfigError{Source: name, Message: err.Error(), Err: err}
	}
	return fc.applyTo(base), nil
}

// normalizeYAML replaces YAML's .inf with the Infinity literal, since CUE
// has no representation for infinite numbers.
func normalizeYAML(doc map[string]any) map[string]any {
	for k, v := range doc {
		if f, ok := v.(float64); ok && math.IsInf(f, 1) {
			doc[k] = InfinityLiteral
		}
	}
	return doc
}

// ApplyEnv overlays thresholds from environment variables onto cfg.
// lookup is normally os.LookupEnv; unset variables leave cfg unchanged.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	if v, ok := lookup(EnvMinClusters); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return cfg, &ConfigError{Source: EnvMinClusters, Message: fmt.Sprintf("want a non-negative integer, got %q", v), Err: err}
		}
		cfg.MinClusters = n
	}
	if v, ok := lookup(EnvRequireSymmetry); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return cfg, &ConfigError{Source: EnvRequireSymmetry, Message: fmt.Sprintf("want a boolean, got %q", v), Err: err}
		}
		cfg.RequireSymmetry = b
	}
	if v, ok := lookup(EnvMinCoordsPct); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || f < 0 || f > 100 {
			return cfg, &ConfigError{Source: EnvMinCoordsPct, Message: fmt.Sprintf("want a percentage between 0 and 100, got %q", v), Err: err}
		}
		cfg.MinCoordsPct = f
	}
	if v, ok := lookup(EnvMaxCrossClusterEdges); ok {
		l, err := ParseLimit(v)
		if err != nil {
			return cfg, &ConfigError{Source: EnvMaxCrossClusterEdges, Message: err.Error(), Err: err}
		}
		cfg.MaxCrossClusterEdges = l
	}
	if v, ok := lookup(EnvMaxComponents); ok {
		l, err := ParseLimit(v)
		if err != nil {
			return cfg, &ConfigError{Source: EnvMaxComponents, Message: err.Error(), Err: err}
		}
		cfg.MaxComponents = l
	}
	if v, ok := lookup(EnvAutofixSymmetry); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return cfg, &ConfigError{Source: EnvAutofixSymmetry, Message: fmt.Sprintf("want a boolean, got %q", v), Err: err}
		}
		cfg.AutofixSymmetry = b
	}
	return cfg, nil
}
