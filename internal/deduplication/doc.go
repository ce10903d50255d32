// Package deduplication groups near-duplicate text values.
//
// # Overview
//
// The engine makes a single pass over records in the order the record store
// returns them. Each non-empty value is compared against the representatives
// registered so far; the first one that matches supplies the group id, and a
// value that matches nothing becomes a new representative with the next id.
//
// Group ids are rendered as "Group 1", "Group 2", ... and are allocated in
// order of first appearance. Records with an empty value are skipped: they get
// no assignment and are never written.
//
// # Matching Policies
//
// The policy is chosen once per run:
//   - exact: byte-for-byte equality, looked up directly by value
//   - fuzzy: Levenshtein distance <= threshold (default 3)
//   - ignore_case: equality after Unicode lower-casing
//
// Non-exact policies scan representatives in insertion order and stop at the
// first match. The match is greedy, not nearest.
//
// Unrecognized method names do not fail the run. Nothing ever matches, so
// every value gets its own group; the job logs a warning.
//
// # Streaming Semantics
//
// A value is only ever compared with representatives, never with other group
// members, and earlier decisions are never revisited. The result depends on
// order. With fuzzy threshold 1, ["ab", "abc", "abcd"] yields two groups
// ("abcd" is two edits from the representative "ab"), while
// ["abc", "ab", "abcd"] yields one.
//
// # Usage Examples
//
// Grouping bare values:
//
//	ids := deduplication.GroupValues(deduplication.ExactPolicy(), []string{"A", "B", "A"})
//	// ids == [1 2 1]
//
// Full run against a record store:
//
//	cfg := deduplication.DefaultConfig()
//	cfg.Table = "contacts"
//	cfg.Field = "Company"
//	cfg.GroupField = "Duplicate Group"
//	cfg.Method = "fuzzy"
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	result, err := deduplication.NewJob(store, cfg).Run(ctx)
//	if err != nil {
//	    return fmt.Errorf("grouping failed after %d writes: %w", result.Written, err)
//	}
//
// # Error Handling
//
//   - Empty values are skips, not errors
//   - A zero fuzzy threshold is replaced by the default
//   - Read and write failures abort the run and are returned wrapped; batches
//     already written stay in place and nothing is retried
//
// # Performance Considerations
//
// Exact lookups are O(1). Fuzzy and ignore_case lookups are O(groups) per
// record, and each fuzzy comparison is O(len(a) * len(b)). This is fine for
// tables of a few thousand rows; GroupingStats.Comparisons shows the cost.
package deduplication
