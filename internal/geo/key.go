package geo

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// folder is stateless and safe for concurrent use.
var folder = cases.Fold()

// CanonicalKey returns the stable identity form of a slug: surrounding
// whitespace trimmed, Unicode case-folded and NFC normalized.
func CanonicalKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return norm.NFC.String(folder.String(s))
}

// CanonicalKeys canonicalizes a list of keys, dropping empties.
// Order is preserved and duplicates are kept.
func CanonicalKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if ck := CanonicalKey(k); ck != "" {
			out = append(out, ck)
		}
	}
	return out
}
