// Package textmatch provides a normalized string-similarity ratio used to
// match user-preferred center names against the names the API reports.
package textmatch

// Ratio returns a similarity measure in [0, 1] between a and b, computed as
// 2*LCS(a, b) / (len(a) + len(b)). It is symmetric and reaches 1.0 only when
// the strings are byte-for-byte equal.
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return 2 * float64(lcsLength(a, b)) / float64(len(a)+len(b))
}

// lcsLength computes the longest-common-subsequence length with a rolling
// single-row table, O(len(b)) space.
func lcsLength(a, b string) int {
	row := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		prevDiag := 0 // row[j-1] from the previous iteration of i
		for j := 1; j <= len(b); j++ {
			tmp := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = tmp
		}
	}

	return row[len(b)]
}

// Matcher precomputes nothing beyond the pattern today but pins the pattern
// string so callers rank against a fixed fragment set.
type Matcher struct {
	pattern string
}

// NewMatcher creates a matcher for one preferred-center fragment.
func NewMatcher(pattern string) *Matcher {
	return &Matcher{pattern: pattern}
}

// Ratio scores the candidate against the matcher's fragment.
func (m *Matcher) Ratio(candidate string) float64 {
	return Ratio(m.pattern, candidate)
}
