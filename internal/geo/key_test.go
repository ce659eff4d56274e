package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already canonical", "bondi", "bondi"},
		{"upper case", "BONDI", "bondi"},
		{"mixed case with spaces", "  Bondi Beach \t", "bondi beach"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"non-ascii upper case", "ÉCOLE", "école"},
		{"decomposed accent composes", "cafe\u0301", "caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalKey(tt.input))
		})
	}
}

func TestCanonicalKeysDropsEmpties(t *testing.T) {
	got := CanonicalKeys([]string{"A", " ", "b", "A"})
	assert.Equal(t, []string{"a", "b", "a"}, got)
}

func TestUndirectedEdgeIsOrderIndependent(t *testing.T) {
	e1 := NewUndirectedEdge("b", "a")
	e2 := NewUndirectedEdge("a", "b")
	assert.Equal(t, e1, e2)
	assert.Equal(t, "a|b", e1.String())
}
