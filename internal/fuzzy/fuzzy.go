// Package fuzzy implements token-sort string similarity on a 0-100 scale.
package fuzzy

import (
	"slices"
	"strings"
)

// Ratio returns the normalized Indel similarity of a and b in [0, 100]:
// 100 * 2 * LCS(a, b) / (len(a) + len(b)), counted in runes.
// Two empty strings are identical (100).
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcsLength(ra, rb)) / float64(total)
}

// TokenSortRatio sorts the whitespace-separated tokens of each input, joins
// them with single spaces and returns their Ratio. Word order is ignored.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

// lcsLength uses a single rolling row, O(len(a)*len(b)) time and O(len(b)) space.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}

	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			saved := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = saved
		}
	}
	return row[len(b)]
}
