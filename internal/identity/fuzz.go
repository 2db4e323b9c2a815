// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package identity

import "strings"

// Ratio returns a 0-100 similarity score between a and b based on the
// indel edit distance (insertions and deletions only, substitutions cost
// two). Identical strings score 100; strings with no common subsequence
// score 0. Two empty strings are considered identical.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	lcs := longestCommonSubsequence(ra, rb)
	return float64(2*lcs) / float64(la+lb) * 100
}

// PartialRatio returns the best Ratio between the shorter string and any
// equal-length window of the longer string. It scores 100 when the shorter
// string appears verbatim inside the longer one.
func PartialRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}

	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		window := rb[start : start+len(ra)]
		if score := Ratio(string(ra), string(window)); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// longestCommonSubsequence computes the LCS length with a two-row DP table.
func longestCommonSubsequence(a, b []rune) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := 1; i <= len(b); i++ {
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

// normalizeTitle lowercases a title and collapses surrounding whitespace so
// lookups tolerate casing and padding differences.
func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// titlePrefix returns the bucket key for approximate matching: the first
// three characters of the normalized title, or the whole title when shorter.
func titlePrefix(normalized string) string {
	r := []rune(normalized)
	if len(r) <= 3 {
		return normalized
	}
	return string(r[:3])
}
