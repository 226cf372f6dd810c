package korean

import (
	"strings"
	"unicode"
)

// Hangul syllable composition constants.
const (
	hangulBase  = 0xAC00
	hangulLast  = 0xD7A3
	jamoTrailN  = 28
	vowelCount  = 21
	vowelAe     = 1 // ㅐ
	vowelE      = 5 // ㅔ
	vowelYae    = 3 // ㅒ
	vowelYe     = 7 // ㅖ
)

// Similarity scores how alike two strings are, in [0, 1].
//
// Both inputs are normalised first: whitespace removed, ASCII lowercased,
// and the near-homophone vowels ㅐ/ㅔ and ㅒ/ㅖ folded together, so that
// "재무재표" still matches "재무제표". Containment is the strongest signal
// and scores at least 0.8; otherwise the score degrades to normalised
// Levenshtein similarity.
func Similarity(s1, s2 string) float64 {
	n1 := normalize(s1)
	n2 := normalize(s2)

	if len(n1) == 0 && len(n2) == 0 {
		return 1.0
	}
	if len(n1) == 0 || len(n2) == 0 {
		return 0.0
	}

	if containsRunes(n1, n2) || containsRunes(n2, n1) {
		minLen, maxLen := len(n1), len(n2)
		if minLen > maxLen {
			minLen, maxLen = maxLen, minLen
		}
		ratio := float64(minLen) / float64(maxLen)
		return 0.8 + ratio*0.2
	}

	distance := levenshtein(n1, n2)
	maxLen := len(n1)
	if len(n2) > maxLen {
		maxLen = len(n2)
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// MaxSimilarity returns the best Similarity between the query and any facet.
func MaxSimilarity(facets []string, query string) float64 {
	best := 0.0
	for _, f := range facets {
		if f == "" {
			continue
		}
		if s := Similarity(f, query); s > best {
			best = s
		}
	}
	return best
}

// normalize returns the comparison form of s as a rune slice.
func normalize(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, foldVowel(unicode.ToLower(r)))
	}
	return out
}

// foldVowel maps ㅐ→ㅔ and ㅒ→ㅖ, both as standalone jamo and inside
// composed syllables (개→게, 얘→예).
func foldVowel(r rune) rune {
	switch r {
	case 'ㅐ':
		return 'ㅔ'
	case 'ㅒ':
		return 'ㅖ'
	}
	if r < hangulBase || r > hangulLast {
		return r
	}
	offset := r - hangulBase
	vowel := (offset / jamoTrailN) % vowelCount
	switch vowel {
	case vowelAe:
		return r + (vowelE-vowelAe)*jamoTrailN
	case vowelYae:
		return r + (vowelYe-vowelYae)*jamoTrailN
	}
	return r
}

func containsRunes(haystack, needle []rune) bool {
	return strings.Contains(string(haystack), string(needle))
}

// levenshtein computes edit distance over runes with a single-row DP.
func levenshtein(s1, s2 []rune) int {
	costs := make([]int, len(s2)+1)
	for j := range costs {
		costs[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		lastValue := i
		for j := 1; j <= len(s2); j++ {
			newValue := costs[j-1]
			if s1[i-1] != s2[j-1] {
				newValue = min3(newValue, lastValue, costs[j]) + 1
			}
			costs[j-1] = lastValue
			lastValue = newValue
		}
		costs[len(s2)] = lastValue
	}
	return costs[len(s2)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
