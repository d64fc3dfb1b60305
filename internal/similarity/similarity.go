// Package similarity scores lexical closeness between short strings.
// Scores are used to warn about near-duplicate tag names, never to block.
package similarity

import (
	"strings"
	"unicode/utf8"
)

// Score boundaries and blend weights. The blend favors edit distance, which
// catches typos, with bigram overlap picking up word reorderings that edit
// distance punishes ("go lang" vs "lang go").
const (
	MaxScore = 100

	editWeight    = 0.7
	overlapWeight = 0.3

	// typoFloor is the minimum score for strings one edit apart. The
	// blend underrates single-character typos on short names, where one
	// edit wipes out a large fraction of the bigrams.
	typoFloor = 80
)

// Score returns a 0-100 likeness score between a and b.
// Symmetric; identical strings (after trim/lowercase) score 100;
// strings with no shared characters score near 0.
func Score(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		if a == "" {
			return 0
		}
		return MaxScore
	}
	if a == "" || b == "" {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	dist := levenshtein(ra, rb)

	edit := 1 - float64(dist)/float64(max(len(ra), len(rb)))
	overlap := bigramSimilarity(a, b)

	blended := editWeight*edit + overlapWeight*overlap
	score := int(blended*MaxScore + 0.5)
	if dist == 1 && score < typoFloor {
		score = typoFloor
	}
	if score > MaxScore {
		score = MaxScore
	}
	return score
}

// levenshtein computes edit distance with a two-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// bigramSimilarity is the Sorensen-Dice coefficient over character bigrams,
// in [0,1]. Single-rune strings fall back to exact-rune comparison.
func bigramSimilarity(a, b string) float64 {
	if utf8.RuneCountInString(a) < 2 || utf8.RuneCountInString(b) < 2 {
		if a == b {
			return 1
		}
		return 0
	}

	ba := bigrams(a)
	bb := bigrams(b)

	var shared int
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			shared += min(n, m)
		}
	}

	var total int
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}

	return 2 * float64(shared) / float64(total)
}

// bigrams returns the multiset of adjacent rune pairs in s.
func bigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int, len(runes))
	for i := 0; i < len(runes)-1; i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}
