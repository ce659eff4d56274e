package harness

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/geocheck/internal/report"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Failures []string // Gate failures of the run, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Failures) > 0 {
		fmt.Fprintf(&buf, "\nGate failures:\n")
		for i, f := range e.Failures {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, f)
		}
	}

	return buf.String()
}

func evaluate(result *Result, a Assertion) error {
	r := result.Report
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Failures: r.Failures}
	}

	switch a.Type {
	case AssertOK:
		if r.OK != *a.OK {
			return fail(fmt.Sprintf("ok=%t", *a.OK), fmt.Sprintf("ok=%t", r.OK))
		}
	case AssertFailureCount:
		if len(r.Failures) != *a.Count {
			return fail(fmt.Sprintf("%d failure(s)", *a.Count), fmt.Sprintf("%d failure(s)", len(r.Failures)))
		}
	case AssertFailureContains:
		for _, f := range r.Failures {
			if strings.Contains(f, a.Text) {
				return nil
			}
		}
		return fail(fmt.Sprintf("a failure containing %q", a.Text), "no such failure")
	case AssertWarning:
		n := 0
		for _, w := range r.Warnings {
			if w.Code == a.Code {
				n++
			}
		}
		switch {
		case a.Count != nil && n != *a.Count:
			return fail(fmt.Sprintf("%d warning(s) %s", *a.Count, a.Code), fmt.Sprintf("%d", n))
		case a.Count == nil && n == 0:
			return fail(fmt.Sprintf("a warning %s", a.Code), "none")
		}
	case AssertMetric:
		return assertMetric(result.Data, a, fail)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertMetric compares the value at a.Path in the encoded report with
// a.Equals. Both sides are compared in canonical form, so YAML integers
// match JSON numbers and key order is irrelevant.
func assertMetric(data []byte, a Assertion, fail func(expected, actual string) error) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}

	actual, err := lookup(doc, a.Path)
	if err != nil {
		return fail(fmt.Sprintf("%s present", a.Path), err.Error())
	}

	want, err := report.MarshalCanonical(a.Equals)
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}
	got, err := report.MarshalCanonical(actual)
	if err != nil {
		return fmt.Errorf("actual value: %w", err)
	}
	if string(want) != string(got) {
		return fail(fmt.Sprintf("%s = %s", a.Path, want), string(got))
	}
	return nil
}

// lookup walks a dotted path through decoded JSON.
func lookup(doc any, path string) (any, error) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("no key %q", seg)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("no index %q in array of %d", seg, len(node))
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, seg)
		}
	}
	return cur, nil
}
