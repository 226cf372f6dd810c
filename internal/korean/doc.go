// Package korean contains the text primitives behind natural-language file
// search: keyword tokenisation with Hangul prefix n-grams, stopword and
// particle stripping, and the containment/edit-distance similarity score.
//
// Functions are pure and safe for concurrent use. A morphological analyzer
// is an optional seam; without one the tokenizer falls back to whitespace
// splitting plus prefix rules.
package korean
