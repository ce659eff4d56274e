package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/geocheck/internal/dataset"
)

// Scenario defines a validation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is the input data, written as YAML.
	Dataset Dataset `yaml:"dataset"`

	// Thresholds overlay the defaults, using threshold-file keys.
	Thresholds map[string]any `yaml:"thresholds,omitempty"`

	// SmallComponentMax bounds the smallest-components list.
	// Zero selects the default.
	SmallComponentMax int `yaml:"small_component_max,omitempty"`

	// Repeat runs the pipeline this many times (minimum 1) and requires
	// identical reports.
	Repeat int `yaml:"repeat,omitempty"`

	// Assertions validate the report of the first run.
	Assertions []Assertion `yaml:"assertions"`
}

// Dataset holds the three input sources. Absent sections load as empty.
type Dataset struct {
	Areas     any `yaml:"areas"`
	Clusters  any `yaml:"clusters"`
	Adjacency any `yaml:"adjacency"`
}

// Assertion validates one aspect of the report.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// OK is the expected gate outcome (used by ok).
	OK *bool `yaml:"ok,omitempty"`

	// Count is the expected number of matches
	// (used by failure_count, optional for warning).
	Count *int `yaml:"count,omitempty"`

	// Text is a substring of an expected failure (used by failure_contains).
	Text string `yaml:"text,omitempty"`

	// Code is a warning code such as W007 (used by warning).
	Code string `yaml:"code,omitempty"`

	// Path is a dotted path into the report, with numeric segments
	// indexing arrays (used by metric).
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value at Path (used by metric).
	Equals any `yaml:"equals,omitempty"`
}

// Assertion type constants.
const (
	AssertOK              = "ok"
	AssertFailureCount    = "failure_count"
	AssertFailureContains = "failure_contains"
	AssertWarning         = "warning"
	AssertMetric          = "metric"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Repeat < 0 {
		return fmt.Errorf("repeat must not be negative")
	}
	if s.SmallComponentMax < 0 {
		return fmt.Errorf("small_component_max must not be negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertOK:
		if a.OK == nil {
			return fmt.Errorf("ok assertion requires 'ok' field")
		}
	case AssertFailureCount:
		if a.Count == nil {
			return fmt.Errorf("failure_count assertion requires 'count' field")
		}
	case AssertFailureContains:
		if a.Text == "" {
			return fmt.Errorf("failure_contains assertion requires 'text' field")
		}
	case AssertWarning:
		if a.Code == "" {
			return fmt.Errorf("warning assertion requires 'code' field")
		}
	case AssertMetric:
		if a.Path == "" {
			return fmt.Errorf("metric assertion requires 'path' field")
		}
		if a.Equals == nil {
			return fmt.Errorf("metric assertion requires 'equals' field")
		}
	case "":
		return fmt.Errorf("assertion type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// Inputs encodes the dataset sections as JSON source bytes.
func (d Dataset) Inputs() (dataset.Inputs, error) {
	areas, err := encodeSection(d.Areas, "[]")
	if err != nil {
		return dataset.Inputs{}, fmt.Errorf("areas: %w", err)
	}
	clusters, err := encodeSection(d.Clusters, "[]")
	if err != nil {
		return dataset.Inputs{}, fmt.Errorf("clusters: %w", err)
	}
	adjacency, err := encodeSection(d.Adjacency, "{}")
	if err != nil {
		return dataset.Inputs{}, fmt.Errorf("adjacency: %w", err)
	}
	return dataset.Inputs{Areas: areas, Clusters: clusters, Adjacency: adjacency}, nil
}

func encodeSection(v any, empty string) ([]byte, error) {
	if v == nil {
		return []byte(empty), nil
	}
	return json.Marshal(v)
}
