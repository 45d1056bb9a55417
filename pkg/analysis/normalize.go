package analysis

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSample canonicalizes a sample before matching: Unicode NFKC
// (compatibility forms such as ligatures and fullwidth digits collapse to
// their plain equivalents) followed by case folding. Matching on the
// normalized form keeps signatures stable across trivially different
// renderings of the same text.
func NormalizeSample(s string) string {
	// Casers are stateful, so build one per call
	return cases.Fold().String(norm.NFKC.String(s))
}

// isBlank reports whether a sample contains no printable content.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
