// Package similarity provides the string metric used for fuzzy grouping.
package similarity

// Distance returns the Levenshtein edit distance between a and b: the minimum
// number of single-character insertions, deletions, or substitutions (each
// costing 1) needed to turn a into b. Characters are Unicode code points.
//
// No normalization is applied; callers fold case or trim whitespace themselves.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// matrix[i][j] is the distance between the first j runes of a and the
	// first i runes of b.
	matrix := make([][]int, len(rb)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(ra)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(ra); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if ra[j-1] == rb[i-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = 1 + min(
				matrix[i-1][j],   // deletion
				matrix[i][j-1],   // insertion
				matrix[i-1][j-1], // substitution
			)
		}
	}

	return matrix[len(rb)][len(ra)]
}

// Within reports whether Distance(a, b) <= threshold. A negative threshold
// never matches.
func Within(a, b string, threshold int) bool {
	if threshold < 0 {
		return false
	}
	if a == b {
		return true
	}
	// Lengths differing by more than the threshold can't be within it.
	if diff := len([]rune(a)) - len([]rune(b)); diff > threshold || -diff > threshold {
		return false
	}
	return Distance(a, b) <= threshold
}
