package deduplication

import (
	"github.com/steveyegge/fuzzygroup/internal/similarity"
	"github.com/steveyegge/fuzzygroup/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Policy decides whether a value belongs to an existing representative's group.
//
// A Policy is one of a closed set of variants built by ExactPolicy, FuzzyPolicy,
// IgnoreCasePolicy, or PolicyFor. Each variant carries its own key and match
// functions; the Registry never switches on the method name.
//
// Policies are not safe for concurrent use.
type Policy struct {
	method    types.Method
	threshold int

	// direct means representatives are keyed by key(value) and looked up in
	// O(1) instead of scanned.
	direct bool

	// key normalizes a value before it is stored or compared.
	key func(string) string

	// match compares the keys of a value and a representative.
	match func(valueKey, repKey string) bool
}

// ExactPolicy matches byte-for-byte equal values.
func ExactPolicy() Policy {
	return Policy{
		method: types.MethodExact,
		direct: true,
		key:    identity,
		match:  func(v, r string) bool { return v == r },
	}
}

// FuzzyPolicy matches values within threshold edits of a representative.
// The threshold is used as given; defaulting happens in Config.
func FuzzyPolicy(threshold int) Policy {
	return Policy{
		method:    types.MethodFuzzy,
		threshold: threshold,
		key:       identity,
		match: func(v, r string) bool {
			return similarity.Within(v, r, threshold)
		},
	}
}

// IgnoreCasePolicy matches values that are equal once both are lower-cased.
// Lower-casing is not full case folding: "Straße" and "STRASSE" stay apart.
func IgnoreCasePolicy() Policy {
	lower := cases.Lower(language.Und)
	return Policy{
		method: types.MethodIgnoreCase,
		key:    lower.String,
		match:  func(v, r string) bool { return v == r },
	}
}

// noMatchPolicy is used for unrecognized methods: nothing ever matches, so
// every non-empty value starts its own group.
func noMatchPolicy() Policy {
	return Policy{
		method: types.MethodUnknown,
		key:    identity,
		match:  func(string, string) bool { return false },
	}
}

// PolicyFor builds the policy for a parsed method.
func PolicyFor(method types.Method, threshold int) Policy {
	switch method {
	case types.MethodExact:
		return ExactPolicy()
	case types.MethodFuzzy:
		return FuzzyPolicy(threshold)
	case types.MethodIgnoreCase:
		return IgnoreCasePolicy()
	default:
		return noMatchPolicy()
	}
}

// Method returns the strategy this policy implements.
func (p Policy) Method() types.Method { return p.method }

// Threshold returns the edit-distance threshold (fuzzy only).
func (p Policy) Threshold() int { return p.threshold }

// Matches reports whether value would join representative's group.
func (p Policy) Matches(value, representative string) bool {
	if p.match == nil {
		return false
	}
	return p.match(p.key(value), p.key(representative))
}

func identity(s string) string { return s }
