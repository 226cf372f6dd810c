package korean

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Morpheme is one analyzed unit with its Sejong part-of-speech tag.
type Morpheme struct {
	// Surface is the morpheme text.
	Surface string

	// Tag is the part-of-speech tag (NNG, NNP, NNB, SL, VA, VV, SN, ...).
	Tag string
}

// Analyzer is an optional morphological analyzer. When unavailable the
// tokenizer degrades to whitespace splitting plus prefix rules.
type Analyzer interface {
	Analyze(text string) ([]Morpheme, error)
}

// Tokenizer converts a cleaned keyword string into a deduplicated, ordered
// list of content tokens. Longer tokens sort first so exact matches beat
// prefix fragments.
type Tokenizer struct {
	analyzer Analyzer
	onError  func(err error)
}

// NewTokenizer creates a tokenizer. analyzer may be nil.
func NewTokenizer(analyzer Analyzer) *Tokenizer {
	return &Tokenizer{analyzer: analyzer}
}

// SetErrorHook installs a callback invoked when the analyzer fails.
// Analyzer failures are recovered locally and never abort tokenisation.
func (t *Tokenizer) SetErrorHook(fn func(err error)) {
	t.onError = fn
}

// Tokens extracts keyword tokens from raw keyword text.
//
// The pipeline: morpheme extraction (nouns, foreign words, adjective/verb
// stems, numbers) when an analyzer is present, merged with whitespace-split
// tokens of the cleaned text, plus 2/3/4-character prefixes of Hangul tokens
// so compound words still match ("귀여운짤" → "귀여", "귀여운"). Tokens
// shorter than two runes are dropped, and once any token of three or more
// runes exists, the two-rune fragments are dropped too.
func (t *Tokenizer) Tokens(keyword string) []string {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var ordered []string
	add := func(tok string) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		ordered = append(ordered, tok)
	}

	if t.analyzer != nil {
		morphemes, err := t.analyzer.Analyze(kw)
		if err != nil {
			if t.onError != nil {
				t.onError(err)
			}
		} else {
			for _, m := range morphemes {
				t.addMorpheme(m, add)
			}
		}
	}

	cleaned := StripNoise(kw)
	cleaned = StripParticles(cleaned)
	cleaned = glyphPattern.ReplaceAllString(cleaned, " ")
	cleaned = CollapseSpaces(cleaned)

	for _, part := range strings.Fields(cleaned) {
		runes := []rune(part)
		if len(runes) < 2 {
			continue
		}
		add(part)
		// Prefix fragments recover compound-word pieces the analyzer missed.
		if len(runes) >= 3 && ContainsHangul(part) {
			add(string(runes[:3]))
			add(string(runes[:2]))
		}
		if len(runes) >= 4 && ContainsHangul(part) {
			add(string(runes[:4]))
		}
	}

	if len(ordered) == 0 {
		return nil
	}

	result := ordered[:0:0]
	hasLong := false
	for _, tok := range ordered {
		if utf8.RuneCountInString(tok) >= 2 {
			result = append(result, tok)
		}
		if utf8.RuneCountInString(tok) >= 3 {
			hasLong = true
		}
	}
	// Longer tokens dominate: with a 3+ rune token present, 2-rune
	// fragments only add noise to AND matching.
	if hasLong {
		kept := result[:0]
		for _, tok := range result {
			if utf8.RuneCountInString(tok) >= 3 {
				kept = append(kept, tok)
			}
		}
		result = kept
	}

	sort.SliceStable(result, func(i, j int) bool {
		return utf8.RuneCountInString(result[i]) > utf8.RuneCountInString(result[j])
	})
	return result
}

// addMorpheme keeps general/proper nouns, foreign words, adjective and verb
// stems of two or more runes, and numbers. Bound nouns (NNB) and the bare
// organisational suffixes 팀/부서/부 are rejected.
func (t *Tokenizer) addMorpheme(m Morpheme, add func(string)) {
	surface := strings.TrimSpace(m.Surface)
	if surface == "" {
		return
	}
	n := utf8.RuneCountInString(surface)
	switch {
	case strings.HasPrefix(m.Tag, "NN") && m.Tag != "NNB", m.Tag == "SL":
		if surface == "팀" || surface == "부서" || surface == "부" || n < 2 {
			return
		}
		add(surface)
	case m.Tag == "VA" || m.Tag == "VV":
		if n >= 2 {
			add(surface)
		}
	case m.Tag == "SN":
		add(surface)
	}
}
