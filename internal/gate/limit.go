package gate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// InfinityLiteral is the serialized form of Unbounded.
const InfinityLiteral = "Infinity"

// Limit is an upper bound that is either finite or unbounded.
//
// The zero value is Unbounded, so an absent threshold never fails.
type Limit struct {
	n       int
	bounded bool
}

// Unbounded is the limit that nothing exceeds.
var Unbounded = Limit{}

// Finite returns a limit of n.
func Finite(n int) Limit {
	return Limit{n: n, bounded: true}
}

// IsUnbounded reports whether l is Unbounded.
func (l Limit) IsUnbounded() bool {
	return !l.bounded
}

// Value returns the finite bound and true, or 0 and false for Unbounded.
func (l Limit) Value() (int, bool) {
	return l.n, l.bounded
}

// Exceeded reports whether v is strictly greater than l.
// Always false for Unbounded.
func (l Limit) Exceeded(v int) bool {
	return l.bounded && v > l.n
}

func (l Limit) String() string {
	if !l.bounded {
		return InfinityLiteral
	}
	return strconv.Itoa(l.n)
}

// ParseLimit parses a threshold value.
//
// Empty input and the literals "infinity", "inf" and "∞" (case-insensitive,
// surrounding whitespace ignored) mean Unbounded. Anything else must be a
// finite, non-negative, integral number.
func ParseLimit(s string) (Limit, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "infinity", "inf", "∞":
		return Unbounded, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Limit{}, fmt.Errorf("invalid limit %q: not a number or Infinity", s)
	}
	return limitFromFloat(f)
}

func limitFromFloat(f float64) (Limit, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Limit{}, fmt.Errorf("invalid limit %v: must be finite (use %q for no limit)", f, InfinityLiteral)
	}
	if f < 0 {
		return Limit{}, fmt.Errorf("invalid limit %v: must not be negative", f)
	}
	if f != math.Trunc(f) {
		return Limit{}, fmt.Errorf("invalid limit %v: must be a whole number", f)
	}
	if f > math.MaxInt32 {
		return Limit{}, fmt.Errorf("invalid limit %v: too large", f)
	}
	return Finite(int(f)), nil
}

// MarshalJSON encodes Unbounded as "Infinity" and finite limits as numbers.
func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.bounded {
		return json.Marshal(InfinityLiteral)
	}
	return []byte(strconv.Itoa(l.n)), nil
}

// UnmarshalJSON accepts a number, an Infinity literal, or null (Unbounded).
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := limitFromAny(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (l Limit) MarshalYAML() (any, error) {
	if !l.bounded {
		return InfinityLiteral, nil
	}
	return l.n, nil
}

// UnmarshalYAML mirrors UnmarshalJSON. YAML's own .inf is also accepted.
func (l *Limit) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	if f, ok := v.(float64); ok && math.IsInf(f, 1) {
		*l = Unbounded
		return nil
	}
	parsed, err := limitFromAny(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func limitFromAny(v any) (Limit, error) {
	switch val := v.(type) {
	case nil:
		return Unbounded, nil
	case string:
		return ParseLimit(val)
	case float64:
		return limitFromFloat(val)
	case int:
		return limitFromFloat(float64(val))
	default:
		return Limit{}, fmt.Errorf("invalid limit %v: expected a number or %q", v, InfinityLiteral)
	}
}
