// Package value implements parsing and comparison for the typed field
// values a document source can carry: keywords, booleans, numerics,
// dates, analyzed text and geo primitives.
package value

import "regexp"

var (
	// integerPattern matches source strings that numeric detection
	// treats as longs.
	integerPattern = regexp.MustCompile(`^\d+$`)
	// decimalPattern matches source strings that numeric detection
	// treats as floating point numbers.
	decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// LooksLikeLong reports whether s would be inferred as a long by
// numeric detection.
func LooksLikeLong(s string) bool { return integerPattern.MatchString(s) }

// LooksLikeDecimal reports whether s would be inferred as a floating
// point number by numeric detection.
func LooksLikeDecimal(s string) bool { return decimalPattern.MatchString(s) }

// Flatten unwraps arrays into a flat list of leaf values. Scalars and
// objects come back as a single-element list, nils are dropped and an
// empty array yields an empty list. Nested arrays are unwrapped
// recursively.
func Flatten(v any) []any {
	if v == nil {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return []any{v}
	}
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		out = append(out, Flatten(el)...)
	}
	return out
}
