// Package keywords turns free-text keyword lists into a canonical token set:
// lower-cased, accent-folded, punctuation-stripped, stop words removed.
package keywords

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLength is exclusive: tokens must be longer than this many runes.
const minTokenLength = 2

// Fold lower-cases s and strips combining marks ("Ingeniería" -> "ingenieria").
func Fold(s string) string {
	// transform.Chain is stateful, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Tokens folds s and splits it into words, treating every rune that is not a
// letter or digit as a separator. Stop words and short tokens are kept.
func Tokens(s string) []string {
	folded := Fold(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Significant reports whether a folded token survives normalization.
func Significant(token string) bool {
	if len([]rune(token)) <= minTokenLength {
		return false
	}
	return !IsStopWord(token)
}

// Normalize returns the de-duplicated significant tokens of raw in first-seen
// order. The result is never nil, and Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		for _, token := range Tokens(item) {
			if !Significant(token) {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}
	return out
}

// Basic only trims, lower-cases and de-duplicates. Used for tenants that
// disable keyword normalization.
func Basic(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		value := strings.ToLower(strings.TrimSpace(item))
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
