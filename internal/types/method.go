package types

import "strings"

// Method is the configured deduplication strategy.
type Method string

const (
	MethodExact      Method = "exact"
	MethodFuzzy      Method = "fuzzy"
	MethodIgnoreCase Method = "ignore_case"

	// MethodUnknown is what ParseMethod returns for an unrecognized name.
	// Grouping with it never matches, so every value gets its own group.
	MethodUnknown Method = "unknown"
)

// methodAliases maps accepted spellings onto the canonical method names.
// "case-insensitive" is the literal older configurations used for ignore_case.
var methodAliases = map[string]Method{
	"exact":            MethodExact,
	"fuzzy":            MethodFuzzy,
	"ignore_case":      MethodIgnoreCase,
	"ignore-case":      MethodIgnoreCase,
	"case-insensitive": MethodIgnoreCase,
	"case_insensitive": MethodIgnoreCase,
}

// ParseMethod resolves a configured method name. Unrecognized names map to
// MethodUnknown rather than failing.
func ParseMethod(s string) Method {
	if m, ok := methodAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return MethodUnknown
}

// IsValid checks if the method is one of the supported strategies
func (m Method) IsValid() bool {
	switch m {
	case MethodExact, MethodFuzzy, MethodIgnoreCase:
		return true
	}
	return false
}
